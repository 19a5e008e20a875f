// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env
// struct tags, then validates ranges and enums.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/review-sentiment/backend/internal/protocol"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" default:":8000"`
	WSAddr   string `env:"WS_ADDR" default:":5500"`

	HeartbeatPeriod   time.Duration `env:"HEARTBEAT_PERIOD" default:"60s"`
	MaxConcurrentJobs int           `env:"MAX_CONCURRENT_JOBS" default:"4"`
	MaxMessageBytes   int64         `env:"MAX_MESSAGE_BYTES" default:"8388608"`
	ProtocolDialect   string        `env:"PROTOCOL_DIALECT" default:"standard"`

	DBPath    string `env:"DB_PATH" default:"data/jobs.db"`
	StaticDir string `env:"STATIC_DIR"`

	IngressRate  float64 `env:"INGRESS_RATE" default:"2"`
	IngressBurst int     `env:"INGRESS_BURST" default:"5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	// AllowedOrigins is a comma-separated list of browser origins allowed to
	// open WebSocket sessions. Empty allows every origin.
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dialect returns the configured wire dialect. Load has already validated it.
func (c *Config) Dialect() protocol.Dialect {
	d, _ := protocol.ParseDialect(c.ProtocolDialect)
	return d
}

// Origins returns the parsed ALLOWED_ORIGINS list.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"HTTP_ADDR", cfg.HTTPAddr},
		{"WS_ADDR", cfg.WSAddr},
		{"DB_PATH", cfg.DBPath},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.HTTPAddr == cfg.WSAddr {
		return errors.New("HTTP_ADDR and WS_ADDR must differ")
	}
	if cfg.HeartbeatPeriod <= 0 {
		return errors.New("HEARTBEAT_PERIOD must be positive")
	}
	if cfg.MaxConcurrentJobs < 1 {
		return errors.New("MAX_CONCURRENT_JOBS must be at least 1")
	}
	if cfg.MaxMessageBytes < 1024 {
		return errors.New("MAX_MESSAGE_BYTES must be at least 1024")
	}
	if _, err := protocol.ParseDialect(cfg.ProtocolDialect); err != nil {
		return fmt.Errorf("PROTOCOL_DIALECT: %w", err)
	}
	if cfg.IngressRate <= 0 || cfg.IngressBurst < 1 {
		return errors.New("INGRESS_RATE must be positive and INGRESS_BURST at least 1")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", cfg.LogLevel)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return nil
}
