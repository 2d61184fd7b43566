// Package storage persists repair run history as a local JSON file under
// the project's .podmedic/ directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunRecord describes one completed (or failed) repair invocation.
type RunRecord struct {
	Time      time.Time `json:"time"`
	Component string    `json:"component"` // bundleid, plist, pods, toolchain, recover, scripts
	Action    string    `json:"action"`
	Result    string    `json:"result"` // "ok" or "failed"
	Detail    string    `json:"detail,omitempty"`
	BuildID   string    `json:"build_id,omitempty"`
	Backups   []string  `json:"backups,omitempty"`
}

// HistoryStore implements run-history storage using a local JSON file.
type HistoryStore struct {
	mu  sync.Mutex
	dir string // .podmedic/ directory
}

// NewHistoryStore creates a history store at the given directory.
func NewHistoryStore(dir string) *HistoryStore {
	return &HistoryStore{dir: dir}
}

func (s *HistoryStore) filePath() string {
	return filepath.Join(s.dir, "history.json")
}

// List returns all records, oldest first.
func (s *HistoryStore) List() ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Last returns the most recent record, or nil when history is empty.
func (s *HistoryStore) Last() (*RunRecord, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[len(records)-1], nil
}

// Append adds a record. The record's time defaults to now.
func (s *HistoryStore) Append(rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Clear removes all history.
func (s *HistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (s *HistoryStore) load() ([]RunRecord, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var records []RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return records, nil
}
