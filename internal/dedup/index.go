package dedup

import "drivedup/internal/model"

// Index provides queryable storage for scanned file metadata.
// All reads exclude trashed records. Implementations surface storage errors
// directly; callers treat them as fatal for the current operation.
type Index interface {
	// Upsert inserts or replaces records keyed by file ID. Idempotent.
	Upsert(records []model.FileRecord) error

	// CountActive returns the number of non-trashed records.
	CountActive() (int, error)

	// GroupBySize returns, for every size >= minSize held by two or more
	// non-trashed records with a checksum, the member file IDs.
	GroupBySize(minSize int64) (map[int64][]string, error)

	// GroupByChecksum groups the given candidate checksums by exact match,
	// returning only checksums shared by two or more non-trashed records.
	GroupByChecksum(md5s []string) (map[string][]string, error)

	// GetByIDs returns the records for the given file IDs.
	GetByIDs(ids []string) ([]model.FileRecord, error)

	// Clear removes all records from the index.
	Clear() error

	// Close closes the backing store.
	Close() error
}

// RunLog records operation history for auditability.
type RunLog interface {
	// CreateRun records the start of an operation and returns its ID.
	CreateRun(operation string, parameters string) (int64, error)

	// FinishRun marks the run finished with the given status.
	FinishRun(id int64, status string) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]model.Run, error)
}

// Store is the full persistence surface: the queryable file index plus the
// operation history log.
type Store interface {
	Index
	RunLog
}
