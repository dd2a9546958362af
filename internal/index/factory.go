package index

import (
	"fmt"
	"path/filepath"

	"drivedup/internal/config"
	"drivedup/internal/dedup"
)

// NewStoreFromConfig creates a Store implementation based on the index config type.
func NewStoreFromConfig(cfg config.IndexConfig) (dedup.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite index")
		}
		return NewSQLiteIndex(filepath.Join(cfg.DataDir, "index.db"))
	case "memory":
		return NewSQLiteIndex(":memory:")
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}
