package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"companion-bot/internal/companion"
)

// Snapshot is the persisted state of the companion trackers.
type Snapshot struct {
	TakenAt time.Time                 `json:"taken_at"`
	Healing companion.HealingSnapshot `json:"healing"`
	Points  []companion.Point         `json:"constellation"`
}

type StatusStore interface {
	// LoadStatus returns nil when nothing has been saved yet.
	LoadStatus() (*Snapshot, error)
	SaveStatus(s Snapshot) error
}

// FileStatusStore keeps the latest snapshot in a single JSON file.
type FileStatusStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStatusStore(path string) (*FileStatusStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure status dir: %w", err)
	}
	return &FileStatusStore{path: path}, nil
}

func (s *FileStatusStore) LoadStatus() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &snap, nil
}

// SaveStatus writes to a temp file and renames it over the old snapshot.
func (s *FileStatusStore) SaveStatus(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace status: %w", err)
	}
	return nil
}
