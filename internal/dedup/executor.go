package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RateLimiter throttles remote calls. Acquire blocks until n tokens are
// available.
type RateLimiter interface {
	Acquire(n int)
}

// Executor applies trash and rename decisions against the remote store.
//
// It is structurally incapable of permanent deletion: the RemoteStore it
// consumes exposes no hard-delete operation, and neither does the Executor.
// Transient remote failures are retried with capped exponential backoff;
// per-file failures are aggregated and never abort a batch.
type Executor struct {
	remote  RemoteStore
	limiter RateLimiter
	logger  Logger

	// DryRun validates and logs intended actions without mutating anything.
	DryRun bool

	// ChunkSize bounds how many files one batch chunk processes.
	ChunkSize int

	maxRetries uint64
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewExecutor creates an executor over the given remote store.
func NewExecutor(remote RemoteStore, limiter RateLimiter, logger Logger, dryRun bool) *Executor {
	return &Executor{
		remote:     remote,
		limiter:    limiter,
		logger:     logger,
		DryRun:     dryRun,
		ChunkSize:  100,
		maxRetries: 5,
		baseDelay:  time.Second,
		maxDelay:   60 * time.Second,
	}
}

// Trash marks a single file trashed. A not-found condition means the file is
// already gone and returns (false, nil) rather than an error.
func (e *Executor) Trash(ctx context.Context, fileID string) (bool, error) {
	if e.DryRun {
		e.logger.Info("dry run: would trash file", "file_id", fileID)
		return true, nil
	}

	err := e.withRetry(ctx, func(ctx context.Context) error {
		e.limiter.Acquire(1)
		return e.remote.Trash(ctx, fileID)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.logger.Warn("file already gone", "file_id", fileID)
			return false, nil
		}
		return false, &ActionError{FileID: fileID, Op: "trash", Err: err}
	}

	e.logger.Info("trashed file", "file_id", fileID)
	return true, nil
}

// Rename changes a file's display name.
func (e *Executor) Rename(ctx context.Context, fileID string, newName string) (bool, error) {
	if e.DryRun {
		e.logger.Info("dry run: would rename file", "file_id", fileID, "new_name", newName)
		return true, nil
	}

	err := e.withRetry(ctx, func(ctx context.Context) error {
		e.limiter.Acquire(1)
		return e.remote.Rename(ctx, fileID, newName)
	})
	if err != nil {
		return false, &ActionError{FileID: fileID, Op: "rename", Err: err}
	}

	e.logger.Info("renamed file", "file_id", fileID, "new_name", newName)
	return true, nil
}

// BatchResult aggregates per-file outcomes of a batch operation. A failed
// file never drops out of the result.
type BatchResult struct {
	Results map[string]bool  // file ID -> operation applied
	Errors  map[string]error // file ID -> failure, for files that errored
}

// Succeeded returns the number of files the operation was applied to.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, ok := range r.Results {
		if ok {
			n++
		}
	}
	return n
}

// Failed returns the number of files that errored or were already gone.
func (r *BatchResult) Failed() int { return len(r.Results) - r.Succeeded() }

// TrashAll trashes the given files in fixed-size chunks. Chunk boundaries are
// not transactional: a crash mid-batch leaves a partially applied prefix,
// which is safe because trashing is idempotent. progress, if non-nil, is
// called after every file.
func (e *Executor) TrashAll(ctx context.Context, fileIDs []string, progress func()) *BatchResult {
	result := &BatchResult{
		Results: make(map[string]bool, len(fileIDs)),
		Errors:  make(map[string]error),
	}

	for start := 0; start < len(fileIDs); start += e.ChunkSize {
		end := min(start+e.ChunkSize, len(fileIDs))
		for _, id := range fileIDs[start:end] {
			ok, err := e.Trash(ctx, id)
			result.Results[id] = ok
			if err != nil {
				result.Errors[id] = err
				e.logger.Error("trash failed", "file_id", id, "error", err)
			}
			if progress != nil {
				progress()
			}
		}
	}

	e.logger.Info("trash batch complete",
		"total", len(fileIDs), "succeeded", result.Succeeded(), "dry_run", e.DryRun)
	return result
}

// RenameAll applies the given renames, aggregating per-file outcomes.
func (e *Executor) RenameAll(ctx context.Context, renames []RenamePlan, progress func()) *BatchResult {
	result := &BatchResult{
		Results: make(map[string]bool, len(renames)),
		Errors:  make(map[string]error),
	}

	for _, plan := range renames {
		ok, err := e.Rename(ctx, plan.File.ID, plan.NewName)
		result.Results[plan.File.ID] = ok
		if err != nil {
			result.Errors[plan.File.ID] = err
			e.logger.Error("rename failed", "file_id", plan.File.ID, "error", err)
		}
		if progress != nil {
			progress()
		}
	}

	e.logger.Info("rename batch complete",
		"total", len(renames), "succeeded", result.Succeeded(), "dry_run", e.DryRun)
	return result
}

// withRetry runs op, retrying transient remote failures (5xx, 429) with
// capped exponential backoff. Non-retryable errors propagate immediately.
// Exhausted rate-limit retries surface as ErrRateLimited so callers can back
// off differently.
func (e *Executor) withRetry(ctx context.Context, op func(context.Context) error) error {
	err := retryTransient(ctx, e.logger, e.baseDelay, e.maxDelay, e.maxRetries, op)
	if err != nil && IsRateLimit(err) {
		return fmt.Errorf("%w: %s", ErrRateLimited, err)
	}
	return err
}
