package dedup

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the core.
var (
	// ErrNotFound indicates the remote file no longer exists.
	ErrNotFound = errors.New("file not found")

	// ErrRateLimited indicates the remote store kept rejecting requests with
	// a rate-limit status after all retries were exhausted. Callers may back
	// off and resume rather than treating this as a hard failure.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// RemoteError is a failure reported by the remote store, carrying the
// provider's HTTP-style status code so callers can classify it.
type RemoteError struct {
	Status int
	Msg    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Msg)
}

// IsTransient reports whether the error is worth retrying: server-side
// failures and rate limiting. Other client errors propagate immediately.
func IsTransient(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.Status >= 500 || re.Status == 429
}

// IsRateLimit reports whether the error is a remote rate-limit rejection.
func IsRateLimit(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status == 429
	}
	return errors.Is(err, ErrRateLimited)
}

// ActionError is a per-file trash or rename failure. Action errors are
// aggregated per batch and never abort the remaining files.
type ActionError struct {
	FileID string
	Op     string // "trash" or "rename"
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.FileID, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
