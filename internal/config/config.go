// Package config loads runtime configuration from the environment,
// with a .env file as a convenience for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ringline-app/backend/internal/errors"
)

// Config holds everything the core needs at startup.
type Config struct {
	// DataDir is where the sqlite database lives.
	DataDir string

	// DatabaseURL is the Postgres connection string of the hosted
	// backend.
	DatabaseURL string

	// RingerID identifies the authenticated caller; the backend
	// resolves the organization from it.
	RingerID string

	// SyncInterval is the periodic auto-sync trigger interval.
	SyncInterval time.Duration

	// ProbeAddr is the host:port the connectivity monitor dials to
	// decide whether the device is online.
	ProbeAddr string

	// LogLevel is the minimum level emitted (debug, info, warn, error).
	LogLevel string
}

// Load reads the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	interval, err := time.ParseDuration(getEnv("RINGLINE_SYNC_INTERVAL", "30s"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrValidation, "invalid RINGLINE_SYNC_INTERVAL", err)
	}

	cfg := &Config{
		DataDir:      getEnv("RINGLINE_DATA_DIR", defaultDataDir()),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RingerID:     os.Getenv("RINGLINE_RINGER_ID"),
		SyncInterval: interval,
		ProbeAddr:    getEnv("RINGLINE_PROBE_ADDR", "1.1.1.1:443"),
		LogLevel:     getEnv("RINGLINE_LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New(errors.ErrValidation, "DATABASE_URL is required")
	}
	if cfg.RingerID == "" {
		return nil, errors.New(errors.ErrValidation, "RINGLINE_RINGER_ID is required")
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + string(os.PathSeparator) + ".ringline"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
