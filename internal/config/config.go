package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config holds the environment driven configuration for the server
type Config struct {
	// Service
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"gamenight"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Session store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"redis"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"gamenight.db"`

	// HTTP
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	cfg.SQLitePath = strings.TrimSpace(cfg.SQLitePath)

	origins := make([]string, 0, len(cfg.CORSAllowedOrigins))
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg.CORSAllowedOrigins = origins

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StoreDriver {
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_DRIVER=%s", DriverRedis)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", DriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (want %s or %s)", c.StoreDriver, DriverRedis, DriverSQLite)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}

	return nil
}

// Addr returns the listen address on all interfaces
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// IsDevelopment reports whether the server runs in the development environment
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// AllowsAllOrigins reports whether CORS is open to every origin
func (c *Config) AllowsAllOrigins() bool {
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
