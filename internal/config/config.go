// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Metadata MetadataConfig `toml:"metadata"`
	Indexer  IndexerConfig  `toml:"indexer"`
	Engine   EngineConfig   `toml:"engine"`
	Sync     SyncConfig     `toml:"sync"`
	Retry    RetryConfig    `toml:"retry"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// MetadataConfig points at the book metadata provider.
type MetadataConfig struct {
	Provider string `toml:"provider"` // provider code, e.g. "fl"
	URL      string `toml:"url"`
	APIKey   string `toml:"api_key"`
}

// IndexerConfig points at the torrent indexer feed.
type IndexerConfig struct {
	Name   string `toml:"name"`
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// EngineConfig points at the download engine.
type EngineConfig struct {
	URL           string   `toml:"url"`
	Category      string   `toml:"category"`
	NotFoundGrace Duration `toml:"not_found_grace"`
}

// SyncConfig controls the job synchronization loop.
type SyncConfig struct {
	Interval Duration `toml:"interval"`
}

// RetryConfig is the shared external-client retry policy.
type RetryConfig struct {
	MaxRetries int      `toml:"max_retries"`
	BaseDelay  Duration `toml:"base_delay"`
	MaxDelay   Duration `toml:"max_delay"`
}

// Duration wraps time.Duration for TOML string values like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/bookarr.db"
	}
	if c.Engine.NotFoundGrace == 0 {
		c.Engine.NotFoundGrace = Duration(60 * time.Second)
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = Duration(30 * time.Second)
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = Duration(500 * time.Millisecond)
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = Duration(30 * time.Second)
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
