package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig              `yaml:"server"`
	HTTP          HTTPConfig                `yaml:"http"`
	Cache         CacheConfig               `yaml:"cache"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Search        SearchConfig              `yaml:"search"`
	TMDB          TMDBConfig                `yaml:"tmdb"`
	OpenSubtitles OpenSubtitlesConfig       `yaml:"opensubtitles"`
	Log           LogConfig                 `yaml:"log"`
}

type ServerConfig struct {
	HTTPPort    int `yaml:"http_port"`
	MetricsPort int `yaml:"metrics_port"` // 0 disables the metrics server
}

type HTTPConfig struct {
	Timeout       int    `yaml:"timeout"` // seconds
	UserAgent     string `yaml:"user_agent"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

type ProviderConfig struct {
	Enabled bool     `yaml:"enabled"`
	Mirrors []string `yaml:"mirrors"`
	Limit   int      `yaml:"limit"` // 0 keeps the provider default
}

type SearchConfig struct {
	DelayMS        int `yaml:"delay_ms"`
	MinQueryLength int `yaml:"min_query_length"`
}

type TMDBConfig struct {
	APIKey string `yaml:"api_key"`
}

type OpenSubtitlesConfig struct {
	APIKey    string   `yaml:"api_key"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Languages []string `yaml:"languages"`
}

type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`  // empty logs to stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    4444,
			MetricsPort: 9090,
		},
		HTTP: HTTPConfig{
			Timeout:       30,
			UserAgent:     "catalogd/1.0",
			MaxConcurrent: 8,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 300,
		},
		Providers: map[string]ProviderConfig{
			"movies": {Enabled: true, Mirrors: []string{"https://tv-v2.api-fetch.website/"}},
			"shows":  {Enabled: true, Mirrors: []string{"https://tv-v2.api-fetch.website/"}},
			"anime":  {Enabled: true, Mirrors: []string{"https://tv-v2.api-fetch.website/"}},
			"yts":    {Enabled: true, Mirrors: []string{"https://yts.mx/api/v2/", "https://yts.ag/api/v2/"}},
		},
		Search: SearchConfig{
			DelayMS:        300,
			MinQueryLength: 3,
		},
		OpenSubtitles: OpenSubtitlesConfig{
			Languages: []string{"en"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	for name, p := range c.Providers {
		if p.Enabled && len(p.Mirrors) == 0 {
			return fmt.Errorf("provider %q is enabled but has no mirrors", name)
		}
		if p.Limit < 0 {
			return fmt.Errorf("provider %q: limit must not be negative", name)
		}
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.MaxConcurrent <= 0 {
		return fmt.Errorf("http.max_concurrent must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive when the cache is enabled")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// RequestTimeout is HTTP.Timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeout) * time.Second
}

// CacheTTL is Cache.TTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SearchDelay is Search.DelayMS as a duration.
func (c *Config) SearchDelay() time.Duration {
	return time.Duration(c.Search.DelayMS) * time.Millisecond
}

// EnsureDirectories creates required directories
func (c *Config) EnsureDirectories() error {
	if c.Log.File == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.Log.File), 0755)
}
