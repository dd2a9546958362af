package export

import (
	"context"
	"io"
)

// Sink is a report destination.
type Sink interface {
	// Name identifies the sink in logs and config.
	Name() string

	// Put stores the report body under the given key.
	Put(ctx context.Context, key string, body io.Reader) error
}
