package remote

import (
	"fmt"

	"drivedup/internal/config"
	"drivedup/internal/dedup"
)

// NewStoreFromConfig creates a RemoteStore implementation based on the remote config type.
func NewStoreFromConfig(cfg config.RemoteConfig) (dedup.RemoteStore, error) {
	switch cfg.Type {
	case "memory":
		if cfg.SeedFile != "" {
			return NewMemoryStoreFromFile(cfg.SeedFile)
		}
		return NewMemoryStore(nil), nil
	case "drive":
		return nil, fmt.Errorf("drive remote not yet implemented")
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
