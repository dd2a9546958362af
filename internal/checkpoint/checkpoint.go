// Package checkpoint persists scan progress so an interrupted scan can
// resume from its last page instead of starting over.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// State is a snapshot of scan progress.
type State struct {
	PageToken    string    `json:"page_token"`
	FilesScanned int       `json:"files_scanned"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FileStore persists checkpoint state as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the checkpoint, creating parent directories as needed.
func (s *FileStore) Save(state State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint. ok is false when no checkpoint exists.
func (s *FileStore) Load() (state State, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("reading checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, fmt.Errorf("decoding checkpoint: %w", err)
	}
	return state, true, nil
}

// Clear removes the checkpoint file. Clearing a missing checkpoint is a no-op.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing checkpoint: %w", err)
	}
	return nil
}
