package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"companion-bot/internal/llm"
)

// SQLiteStore keeps one row per session with the turns encoded as JSON.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS conversations (
		session_id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		history TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		last_accessed DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT history FROM conversations WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []llm.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", sessionID, err)
	}
	var turns []llm.Message
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", sessionID, err)
	}
	return turns, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sessionID string, userID int64, turns []llm.Message) error {
	if turns == nil {
		turns = []llm.Message{}
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history %s: %w", sessionID, err)
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO conversations (session_id, user_id, history, created_at, last_accessed)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		user_id = excluded.user_id,
		history = excluded.history,
		last_accessed = excluded.last_accessed`,
		sessionID, userID, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("save history %s: %w", sessionID, err)
	}
	return nil
}
