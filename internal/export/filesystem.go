package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemSink writes reports into a local directory.
type FilesystemSink struct {
	name string
	dir  string
}

// NewFilesystemSink creates a sink rooted at dir.
func NewFilesystemSink(name, dir string) (*FilesystemSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("filesystem sink requires dir to be set")
	}
	return &FilesystemSink{name: name, dir: dir}, nil
}

func (s *FilesystemSink) Name() string { return s.name }

// Put writes the report to dir/key, creating directories as needed.
func (s *FilesystemSink) Put(_ context.Context, key string, body io.Reader) error {
	path := filepath.Join(s.dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Compile-time check that FilesystemSink implements the Sink interface
var _ Sink = (*FilesystemSink)(nil)
