// Package config holds the server configuration, loaded from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration. An MCP server is
// configured entirely by its host process, so everything comes from the
// environment.
type Config struct {
	DevRev DevRevConfig `env-prefix:""`
	Cache  CacheConfig  `env-prefix:""`
	Log    LogConfig    `env-prefix:""`
}

// DevRevConfig holds DevRev API connection settings.
type DevRevConfig struct {
	APIKey  string        `env:"DEVREV_API_KEY" env-required:"true"`
	BaseURL string        `env:"DEVREV_BASE_URL" env-default:"https://api.devrev.ai"`
	Timeout time.Duration `env:"DEVREV_TIMEOUT" env-default:"30s"`
}

// CacheConfig holds the in-memory document cache settings.
type CacheConfig struct {
	Size int `env:"DEVREV_CACHE_SIZE" env-default:"500"`
}

// LogConfig holds logging settings. Output always goes to stderr; stdout
// carries the MCP protocol stream.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.DevRev.APIKey == "" {
		return fmt.Errorf("DEVREV_API_KEY must be set")
	}
	if c.DevRev.Timeout <= 0 {
		return fmt.Errorf("DEVREV_TIMEOUT must be > 0 (got %v)", c.DevRev.Timeout)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("DEVREV_CACHE_SIZE must be > 0 (got %d)", c.Cache.Size)
	}
	return nil
}
