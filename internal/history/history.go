package history

import (
	"context"
	"fmt"
	"sync"

	"companion-bot/internal/llm"
)

// Store persists conversation turns by session id. Load returns an empty
// slice for unknown sessions.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]llm.Message, error)
	Save(ctx context.Context, sessionID string, userID int64, turns []llm.Message) error
}

// SessionID derives the history key for a persona and caller.
func SessionID(persona string, userID int64) string {
	return fmt.Sprintf("%s_session_%d", persona, userID)
}

type session struct {
	userID int64
	turns  []llm.Message
}

// Manager is an in-memory Store.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]session)}
}

func (m *Manager) Load(_ context.Context, sessionID string) ([]llm.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[sessionID]
	out := make([]llm.Message, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

func (m *Manager) Save(_ context.Context, sessionID string, userID int64, turns []llm.Message) error {
	cp := make([]llm.Message, len(turns))
	copy(cp, turns)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = session{userID: userID, turns: cp}
	return nil
}

// Len returns the number of turns stored for a session.
func (m *Manager) Len(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID].turns)
}
