package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the bookdrop service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"bookdrop"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"BOOKDROP_PORT" envDefault:"8193"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Artifact storage (staged uploads and converter output; wiped at startup)
	StoragePath string `env:"BOOKDROP_STORAGE_PATH" envDefault:"./uploads"`

	// Session lifecycle
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"10m"`
	SessionHardTTL time.Duration `env:"SESSION_HARD_TTL" envDefault:"1h"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"838860800"`
	MaxUploadFiles int   `env:"MAX_UPLOAD_FILES" envDefault:"10"`

	// External converters
	KindlegenPath  string        `env:"KINDLEGEN_PATH" envDefault:"kindlegen"`
	KepubifyPath   string        `env:"KEPUBIFY_PATH" envDefault:"kepubify"`
	ConvertTimeout time.Duration `env:"CONVERT_TIMEOUT" envDefault:"5m"`

	// Rate limiting
	RateLimitEnabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst   int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.StoragePath) == "" {
		return nil, fmt.Errorf("BOOKDROP_STORAGE_PATH must not be empty")
	}
	if cfg.SessionIdleTTL <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if cfg.SessionHardTTL < cfg.SessionIdleTTL {
		return nil, fmt.Errorf("SESSION_HARD_TTL must not be shorter than SESSION_IDLE_TTL")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 800 * 1024 * 1024
	}
	if cfg.MaxUploadFiles <= 0 {
		cfg.MaxUploadFiles = 10
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
