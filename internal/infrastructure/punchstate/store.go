// Package punchstate provides the locally persisted cache of each officer's
// current punch state. The remote punch event list is the source of truth;
// the cache only avoids a round-trip before rendering the next action.
package punchstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
)

// Snapshot is the serialized form of one officer's cached punch state.
type Snapshot struct {
	Date        string                `json:"date"` // local calendar date the state belongs to
	State       attendance.PunchState `json:"state"`
	Unconfirmed bool                  `json:"unconfirmed"` // optimistic write awaiting remote confirmation
}

// Store persists snapshots keyed by officer id.
type Store interface {
	Load(officerID string) (*Snapshot, error)
	Save(officerID string, snap Snapshot) error
	Delete(officerID string) error
}

// FileStore keeps one JSON file per officer under a state directory. It is
// shared across all processes on the device with no locking; the last writer
// wins.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(officerID string) string {
	return filepath.Join(s.dir, "punchstate-"+officerID+".json")
}

// Load reads an officer's snapshot, returning nil when none exists.
func (s *FileStore) Load(officerID string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(officerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read punch state: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot is treated as absent; the caller refetches
		// from the source of truth.
		return nil, nil
	}
	return &snap, nil
}

// Save writes an officer's snapshot.
func (s *FileStore) Save(officerID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal punch state: %w", err)
	}
	if err := os.WriteFile(s.path(officerID), data, 0644); err != nil {
		return fmt.Errorf("failed to write punch state: %w", err)
	}
	return nil
}

// Delete removes an officer's snapshot.
func (s *FileStore) Delete(officerID string) error {
	err := os.Remove(s.path(officerID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete punch state: %w", err)
	}
	return nil
}
