// Package remote provides RemoteStore backends. The memory backend serves a
// fixed record set and is used for tests, dry-run rehearsals and local
// development; a real cloud provider client plugs into the same factory.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"drivedup/internal/dedup"
	"drivedup/internal/model"
)

// MemoryStore is an in-memory implementation of the RemoteStore interface.
// It serves paginated listings from a fixed record set and applies trash and
// rename mutations to it. This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.FileRecord
	order   []string // IDs in stable listing order
}

// NewMemoryStore creates a memory store seeded with the given records.
func NewMemoryStore(records []model.FileRecord) *MemoryStore {
	s := &MemoryStore{records: make(map[string]model.FileRecord, len(records))}
	for _, r := range records {
		if _, exists := s.records[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	sort.Strings(s.order)
	return s
}

// NewMemoryStoreFromFile creates a memory store seeded from a JSON file
// holding an array of file records.
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var records []model.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding seed file %s: %w", path, err)
	}
	return NewMemoryStore(records), nil
}

// ListPage returns one page of non-trashed records. The page token is the ID
// to start from; "" starts at the beginning.
func (s *MemoryStore) ListPage(_ context.Context, pageToken string, pageSize int) (*dedup.Page, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if pageToken != "" {
		start = sort.SearchStrings(s.order, pageToken)
		if start >= len(s.order) || s.order[start] != pageToken {
			return nil, fmt.Errorf("invalid page token %q", pageToken)
		}
	}

	page := &dedup.Page{}
	i := start
	for ; i < len(s.order) && len(page.Files) < pageSize; i++ {
		r := s.records[s.order[i]]
		if r.Trashed {
			continue
		}
		page.Files = append(page.Files, r)
	}
	if i < len(s.order) {
		page.NextPageToken = s.order[i]
	}
	return page, nil
}

// Trash marks the file trashed. Trashing an already-trashed file is a no-op.
func (s *MemoryStore) Trash(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[fileID]
	if !ok {
		return fmt.Errorf("trashing %s: %w", fileID, dedup.ErrNotFound)
	}
	r.Trashed = true
	s.records[fileID] = r
	return nil
}

// Rename changes the file's display name.
func (s *MemoryStore) Rename(_ context.Context, fileID string, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[fileID]
	if !ok {
		return fmt.Errorf("renaming %s: %w", fileID, dedup.ErrNotFound)
	}
	r.Name = newName
	s.records[fileID] = r
	return nil
}

// Get returns the current state of a record, for tests and tooling.
func (s *MemoryStore) Get(fileID string) (model.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[fileID]
	return r, ok
}

// Compile-time check that MemoryStore implements the RemoteStore interface
var _ dedup.RemoteStore = (*MemoryStore)(nil)
