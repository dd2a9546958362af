package dedup

import (
	"context"

	"drivedup/internal/model"
)

// Page is one page of a remote file listing.
type Page struct {
	Files []model.FileRecord

	// NextPageToken is the opaque cursor for the following page,
	// or "" when this is the last page.
	NextPageToken string
}

// RemoteStore is the cloud-provider client the core consumes.
//
// The interface deliberately has no hard-delete operation: Trash marks a file
// trashed on the remote side and is reversible there. Both mutations are
// idempotent on the provider.
type RemoteStore interface {
	// ListPage fetches one page of non-trashed file records. An empty
	// pageToken starts from the beginning.
	ListPage(ctx context.Context, pageToken string, pageSize int) (*Page, error)

	// Trash marks the file trashed. Returns an error wrapping ErrNotFound
	// if the file no longer exists.
	Trash(ctx context.Context, fileID string) error

	// Rename changes the file's display name.
	Rename(ctx context.Context, fileID string, newName string) error
}
