// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port     string `env:"APP_PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"` // "development", "production", "testing"
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Document store backend: "memory", "postgres", "sqlite" or "mongo".
	DocstoreDriver string `env:"DOCSTORE_DRIVER" envDefault:"postgres"`

	// PostgreSQL connection
	DBHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	DBPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER" envDefault:"quillpress"`
	DBPassword string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	DBName     string `env:"POSTGRES_DB" envDefault:"quillpress"`

	// SQLite database file, used when DOCSTORE_DRIVER is "sqlite".
	SQLitePath string `env:"SQLITE_PATH" envDefault:"quillpress.db"`

	// MongoDB connection
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"quillpress"`

	// Valkey (Redis-compatible) for view counters and the stats cache. When
	// it is unreachable at startup both are disabled.
	ValkeyHost     string `env:"VALKEY_HOST" envDefault:"localhost"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`
	ValkeyDB       int    `env:"VALKEY_DB" envDefault:"0"`

	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	// Cron expression for postCount reconciliation. Empty disables it.
	ReconcileSchedule string `env:"RECONCILE_SCHEDULE"`

	// Per-client API rate limit.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Reject archived -> published without going through draft.
	StrictTransitions bool `env:"STRICT_TRANSITIONS" envDefault:"false"`
}

// Load reads an optional .env file and then the environment, applying
// defaults for development where appropriate. Returns an error if critical
// values are invalid or missing in production mode.
func Load() (*Config, error) {
	// Values already in the environment win over .env.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DocstoreDriver {
	case "memory", "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("DOCSTORE_DRIVER must be memory, postgres, sqlite or mongo, got %q", c.DocstoreDriver)
	}
	if c.DocstoreDriver == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH must not be empty")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.Env == "production" {
		if c.DocstoreDriver == "postgres" && c.DBPassword == defaultDBPassword {
			return fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if c.DocstoreDriver == "memory" {
			slog.Warn("memory document store in production, data is lost on restart")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
