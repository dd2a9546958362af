package export

import (
	"context"
	"fmt"

	"drivedup/internal/config"
)

// NewSinkFromConfig creates a Sink implementation based on the sink config type.
func NewSinkFromConfig(ctx context.Context, cfg config.SinkConfig) (Sink, error) {
	switch cfg.Type {
	case "filesystem":
		return NewFilesystemSink(cfg.Name, cfg.Dir)
	case "s3":
		return NewS3Sink(ctx, cfg.Name, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
