package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk configuration for maestro. Defaults are applied
// before decoding so a missing or partial file always yields a usable
// config.
type Config struct {
	Defaults struct {
		WorkingDir string `toml:"working_dir"`
	} `toml:"defaults"`
	Render struct {
		ThrottleMs         int `toml:"throttle_ms"`
		SideBySideMinWidth int `toml:"side_by_side_min_width"`
		MaxBodyLines       int `toml:"max_body_lines"`
		MaxDiffLines       int `toml:"max_diff_lines"`
	} `toml:"render"`
	Dedup struct {
		WindowMs  int `toml:"window_ms"`
		CacheSize int `toml:"cache_size"`
		CacheTTLs int `toml:"cache_ttl_s"`
	} `toml:"dedup"`
	Session struct {
		AutoApprove bool   `toml:"auto_approve"`
		Debug       bool   `toml:"debug"`
		StopOnError bool   `toml:"stop_on_error"`
		Transcript  string `toml:"transcript_db"`
	} `toml:"session"`
}

// GetConfigPath returns the canonical config file location.
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "maestro", "config.toml")
}

// Load reads the config file at path, falling back to defaults when it does
// not exist. An empty path means the canonical location.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}
	var cfg Config

	cfg.Defaults.WorkingDir = "."
	cfg.Render.ThrottleMs = 100
	cfg.Render.SideBySideMinWidth = 100
	cfg.Render.MaxBodyLines = 1000
	cfg.Render.MaxDiffLines = 20
	cfg.Dedup.WindowMs = 100
	cfg.Dedup.CacheSize = 500
	cfg.Dedup.CacheTTLs = 5
	cfg.Session.Transcript = "maestro.db"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return &cfg, err
}

// Save writes the config to path, creating parent directories as needed.
// An empty path means the canonical location.
func (c *Config) Save(path string) error {
	if path == "" {
		path = GetConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// Throttle returns the render throttle as a duration.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.Render.ThrottleMs) * time.Millisecond
}

// DedupWindow returns the deduplication window as a duration.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Dedup.WindowMs) * time.Millisecond
}

// DedupTTL returns the dedup cache entry TTL as a duration.
func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.Dedup.CacheTTLs) * time.Second
}
