package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for drivedup.
type Config struct {
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	Index     IndexConfig     `toml:"index"`
	Remote    RemoteConfig    `toml:"remote"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Scan      ScanConfig      `toml:"scan"`
	Delete    DeleteConfig    `toml:"delete"`
	Report    ReportConfig    `toml:"report"`
}

// IndexConfig represents configuration for the metadata index.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type IndexConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// RemoteConfig represents configuration for the remote store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type string `toml:"type"` // "memory" (a cloud provider backend plugs in here)

	// Memory-specific fields (only used when Type == "memory")
	SeedFile string `toml:"seed_file,omitempty"` // optional JSON file of records to serve
}

// RateLimitConfig bounds the request rate against the remote store.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"` // defaults to 10
	Burst             float64 `toml:"burst,omitempty"`     // defaults to requests_per_second
}

// ScanConfig holds scan defaults.
type ScanConfig struct {
	PageSize  int `toml:"page_size"`  // remote listing page size, defaults to 1000
	ChunkSize int `toml:"chunk_size"` // index write batch size, defaults to 100
}

// DeleteConfig holds deletion defaults, overridable per invocation.
type DeleteConfig struct {
	Strategy string `toml:"strategy"` // default strategy name
	MinSize  int64  `toml:"min_size"` // detection size floor in bytes
}

// ReportConfig holds export settings.
type ReportConfig struct {
	Sinks []SinkConfig `toml:"sinks"`
}

// SinkConfig represents configuration for a report destination.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SinkConfig struct {
	Type string `toml:"type"` // "filesystem" or "s3"
	Name string `toml:"name"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	Dir string `toml:"dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
}

// NewConfig creates a Config with defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Index: IndexConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Remote: RemoteConfig{
			Type: "memory",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
		},
		Scan: ScanConfig{
			PageSize:  1000,
			ChunkSize: 100,
		},
		Delete: DeleteConfig{
			Strategy: "newest",
		},
		Report: ReportConfig{
			Sinks: []SinkConfig{
				{Type: "filesystem", Name: "local", Dir: filepath.Join(baseDir, "reports")},
			},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
