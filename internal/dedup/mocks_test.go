package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drivedup/internal/checkpoint"
	"drivedup/internal/model"
)

// fakeIndex is an in-memory Index for tests.
type fakeIndex struct {
	records map[string]model.FileRecord
	order   []string

	upsertErr error
	clears    int
}

func newFakeIndex(records ...model.FileRecord) *fakeIndex {
	idx := &fakeIndex{records: make(map[string]model.FileRecord)}
	idx.mustUpsert(records)
	return idx
}

func (idx *fakeIndex) mustUpsert(records []model.FileRecord) {
	if err := idx.Upsert(records); err != nil {
		panic(err)
	}
}

func (idx *fakeIndex) Upsert(records []model.FileRecord) error {
	if idx.upsertErr != nil {
		return idx.upsertErr
	}
	for _, r := range records {
		if _, exists := idx.records[r.ID]; !exists {
			idx.order = append(idx.order, r.ID)
		}
		idx.records[r.ID] = r
	}
	return nil
}

func (idx *fakeIndex) CountActive() (int, error) {
	n := 0
	for _, r := range idx.records {
		if !r.Trashed {
			n++
		}
	}
	return n, nil
}

func (idx *fakeIndex) GroupBySize(minSize int64) (map[int64][]string, error) {
	bySize := make(map[int64][]string)
	for _, id := range idx.order {
		r := idx.records[id]
		if r.Trashed || r.MD5 == "" || r.Size < minSize {
			continue
		}
		bySize[r.Size] = append(bySize[r.Size], r.ID)
	}
	for size, ids := range bySize {
		if len(ids) < 2 {
			delete(bySize, size)
		}
	}
	return bySize, nil
}

func (idx *fakeIndex) GroupByChecksum(md5s []string) (map[string][]string, error) {
	want := make(map[string]bool, len(md5s))
	for _, m := range md5s {
		want[m] = true
	}

	byMD5 := make(map[string][]string)
	for _, id := range idx.order {
		r := idx.records[id]
		if r.Trashed || r.MD5 == "" || !want[r.MD5] {
			continue
		}
		byMD5[r.MD5] = append(byMD5[r.MD5], r.ID)
	}
	for md5, ids := range byMD5 {
		if len(ids) < 2 {
			delete(byMD5, md5)
		}
	}
	return byMD5, nil
}

func (idx *fakeIndex) GetByIDs(ids []string) ([]model.FileRecord, error) {
	var out []model.FileRecord
	for _, id := range ids {
		if r, ok := idx.records[id]; ok && !r.Trashed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (idx *fakeIndex) Clear() error {
	idx.records = make(map[string]model.FileRecord)
	idx.order = nil
	idx.clears++
	return nil
}

func (idx *fakeIndex) Close() error { return nil }

// fakeRemote is an in-memory RemoteStore with injectable failures.
type fakeRemote struct {
	mu sync.Mutex

	pages map[string]*Page

	trashed map[string]bool
	renamed map[string]string

	// missing file IDs answer Trash/Rename with ErrNotFound.
	missing map[string]bool

	// trashErrs holds per-file error queues; each Trash call pops one.
	trashErrs map[string][]error

	// listErrs is popped before each ListPage call.
	listErrs []error

	listCalls  int
	trashCalls map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		pages:      make(map[string]*Page),
		trashed:    make(map[string]bool),
		renamed:    make(map[string]string),
		missing:    make(map[string]bool),
		trashErrs:  make(map[string][]error),
		trashCalls: make(map[string]int),
	}
}

func (r *fakeRemote) setPages(pages ...*Page) {
	token := ""
	for _, p := range pages {
		r.pages[token] = p
		token = p.NextPageToken
	}
}

func (r *fakeRemote) ListPage(_ context.Context, pageToken string, _ int) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listCalls++
	if len(r.listErrs) > 0 {
		err := r.listErrs[0]
		r.listErrs = r.listErrs[1:]
		return nil, err
	}

	page, ok := r.pages[pageToken]
	if !ok {
		return &Page{}, nil
	}
	return page, nil
}

func (r *fakeRemote) Trash(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trashCalls[fileID]++
	if queue := r.trashErrs[fileID]; len(queue) > 0 {
		err := queue[0]
		r.trashErrs[fileID] = queue[1:]
		return err
	}
	if r.missing[fileID] {
		return fmt.Errorf("trashing %s: %w", fileID, ErrNotFound)
	}
	r.trashed[fileID] = true
	return nil
}

func (r *fakeRemote) Rename(_ context.Context, fileID string, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.missing[fileID] {
		return fmt.Errorf("renaming %s: %w", fileID, ErrNotFound)
	}
	r.renamed[fileID] = newName
	return nil
}

// nopLimiter grants tokens immediately.
type nopLimiter struct{ acquired int }

func (l *nopLimiter) Acquire(n int) { l.acquired += n }

// memCheckpoints is an in-memory CheckpointStore.
type memCheckpoints struct {
	state  checkpoint.State
	exists bool
	saves  int
	clears int
}

func (m *memCheckpoints) Save(state checkpoint.State) error {
	m.state = state
	m.exists = true
	m.saves++
	return nil
}

func (m *memCheckpoints) Load() (checkpoint.State, bool, error) {
	return m.state, m.exists, nil
}

func (m *memCheckpoints) Clear() error {
	m.exists = false
	m.clears++
	return nil
}

// fixedClock always reports the same instant.
type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func testFile(id, name, path string, size int64, md5 string, modified time.Time) model.FileRecord {
	return model.FileRecord{
		ID:         id,
		Name:       name,
		Size:       size,
		MD5:        md5,
		MIMEType:   "application/octet-stream",
		CreatedAt:  modified.Add(-time.Hour),
		ModifiedAt: modified,
		Path:       path,
		OwnedByMe:  true,
	}
}
