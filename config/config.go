package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheConfig selects and parameterizes the cache backend.
type CacheConfig struct {
	Backend string `yaml:"backend"` // memory or file
	Dir     string `yaml:"dir"`
	Prefix  string `yaml:"prefix"`
}

// RelatedConfig tunes the related-pages selector.
type RelatedConfig struct {
	ExpiryMinutes int `yaml:"expiryMinutes"`
}

// Config encapsulates runtime options.
type Config struct {
	Listen           string        `yaml:"listen"`
	Endpoint         string        `yaml:"endpoint"`
	ContentServerURL string        `yaml:"contentServerUrl"`
	BaseURL          string        `yaml:"baseUrl"`
	LogLevel         string        `yaml:"logLevel"`
	Cache            CacheConfig   `yaml:"cache"`
	Related          RelatedConfig `yaml:"related"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Endpoint: "/mcp",
		LogLevel: "info",
		Cache: CacheConfig{
			Backend: "memory",
			Prefix:  "related-",
		},
		Related: RelatedConfig{
			ExpiryMinutes: 1440,
		},
	}
}

// Load reads configuration from disk and applies defaults. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "/mcp"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "related-"
	}
	if cfg.Related.ExpiryMinutes <= 0 {
		cfg.Related.ExpiryMinutes = 1440
	}
	return cfg, nil
}

// RelatedExpiry returns the configured cache expiry as a duration.
func (c *Config) RelatedExpiry() time.Duration {
	return time.Duration(c.Related.ExpiryMinutes) * time.Minute
}
