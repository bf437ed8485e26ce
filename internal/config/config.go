// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr      string `env:"TASKBOARD_ADDR"       envDefault:":8080"`
	DBPath    string `env:"TASKBOARD_DB_PATH"    envDefault:"data/taskboard.db"`
	DBDriver  string `env:"TASKBOARD_DB_DRIVER"  envDefault:"sqlite3"`
	StaticDir string `env:"TASKBOARD_STATIC_DIR" envDefault:"web/dist"`
	LogLevel  string `env:"TASKBOARD_LOG_LEVEL"  envDefault:"info"`

	JWTSecret string        `env:"TASKBOARD_JWT_SECRET"`
	JWTIssuer string        `env:"TASKBOARD_JWT_ISSUER" envDefault:"taskboard"`
	TokenTTL  time.Duration `env:"TASKBOARD_TOKEN_TTL"  envDefault:"24h"`

	SiteURL          string   `env:"TASKBOARD_SITE_URL"`
	ProductionOrigin string   `env:"TASKBOARD_PRODUCTION_ORIGIN" envDefault:"https://project-compass-nine.vercel.app"`
	PlatformSuffix   string   `env:"TASKBOARD_PLATFORM_SUFFIX"   envDefault:".vercel.app"`
	DevOrigins       []string `env:"TASKBOARD_DEV_ORIGINS"       envDefault:"http://localhost:8080,http://localhost:5173" envSeparator:","`

	RateLimitMax     int           `env:"TASKBOARD_RATE_LIMIT_MAX"     envDefault:"10"`
	RateLimitWindow  time.Duration `env:"TASKBOARD_RATE_LIMIT_WINDOW"  envDefault:"60s"`
	RateLimitBackend string        `env:"TASKBOARD_RATE_LIMIT_BACKEND" envDefault:"memory"`
	SweepInterval    time.Duration `env:"TASKBOARD_SWEEP_INTERVAL"     envDefault:"5m"`

	LookupStrategy string `env:"TASKBOARD_LOOKUP_STRATEGY" envDefault:"index"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("TASKBOARD_DB_DRIVER must be sqlite3 or sqlite, got %q", c.DBDriver)
	}
	switch c.RateLimitBackend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("TASKBOARD_RATE_LIMIT_BACKEND must be memory or sqlite, got %q", c.RateLimitBackend)
	}
	switch c.LookupStrategy {
	case "index", "scan":
	default:
		return fmt.Errorf("TASKBOARD_LOOKUP_STRATEGY must be index or scan, got %q", c.LookupStrategy)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// AllowedOrigins lists the exact origins the CORS check accepts.
func (c Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.DevOrigins)+2)
	if c.SiteURL != "" {
		origins = append(origins, c.SiteURL)
	}
	origins = append(origins, c.ProductionOrigin)
	return append(origins, c.DevOrigins...)
}

// ParseLevel converts a log level name.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
