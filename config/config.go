package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat log archiver.
type Config struct {
	Archive ArchiveConfig `yaml:"archive"`
	Search  SearchConfig  `yaml:"search"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ArchiveConfig holds ingestion configuration.
type ArchiveConfig struct {
	BaseURL        string        `yaml:"base_url"`
	DataDir        string        `yaml:"data_dir"`
	MissBudget     int           `yaml:"miss_budget"` // Consecutive missing days before stopping
	Pace           time.Duration `yaml:"pace"`        // Minimum gap between requests (0 = unpaced)
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LockTimeout    time.Duration `yaml:"lock_timeout"`
	UserAgent      string        `yaml:"user_agent"`
}

// SearchConfig holds query configuration.
type SearchConfig struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	MaxText   int           `yaml:"max_text"` // Truncate printed text (0 = never)
}

// MetricsConfig holds run metrics configuration.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path, empty disables
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			BaseURL:        "http://chatlogs.musicbrainz.org",
			DataDir:        ".chatlogs",
			MissBudget:     100,
			Pace:           time.Second,
			RequestTimeout: 30 * time.Second,
			LockTimeout:    time.Second,
			UserAgent:      "chatlogs-archiver/1.0",
		},
		Search: SearchConfig{
			CacheSize: 100,
			CacheTTL:  5 * time.Minute,
			MaxText:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for chatlogs.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "chatlogs.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".chatlogs", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the archiver cannot run with.
func (c *Config) Validate() error {
	if c.Archive.BaseURL == "" {
		return fmt.Errorf("archive.base_url must be set")
	}
	if c.Archive.DataDir == "" {
		return fmt.Errorf("archive.data_dir must be set")
	}
	if c.Archive.MissBudget <= 0 {
		return fmt.Errorf("archive.miss_budget must be positive, got %d", c.Archive.MissBudget)
	}
	if c.Archive.Pace < 0 {
		return fmt.Errorf("archive.pace must not be negative, got %s", c.Archive.Pace)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ArchivePath returns the path of a channel's archive file.
func ArchivePath(dataDir, channel string) string {
	return filepath.Join(dataDir, channel+".db")
}

// EnsureDataDir ensures the archive directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// applyEnvOverrides reads CHATLOGS_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATLOGS_BASE_URL"); v != "" {
		cfg.Archive.BaseURL = v
	}
	if v := os.Getenv("CHATLOGS_DATA_DIR"); v != "" {
		cfg.Archive.DataDir = v
	}
	if v := os.Getenv("CHATLOGS_MISS_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Archive.MissBudget = n
		}
	}
	if v := os.Getenv("CHATLOGS_PACE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Archive.Pace = d
		}
	}
	if v := os.Getenv("CHATLOGS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHATLOGS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CHATLOGS_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}
