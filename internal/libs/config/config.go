// Package config provides application configuration management from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Supported answer store backends
const (
	BackendFile     = "file"
	BackendWAL      = "wal"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	QuestionsSource  string // File path or http(s) URL of the question bank
	DataDir          string
	StoreBackend     string
	DatabaseURL      string
	RedisURL         string
	WALSyncImmediate bool
	APIPort          string
	APIHost          string
	LogLevel         string
	LogFile          string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration without validating it, so callers can
// apply overrides first
func FromEnv() *Config {
	return &Config{
		QuestionsSource:  getEnv("QUESTIONS_SOURCE", "questions.json"),
		DataDir:          getEnv("DATA_DIR", "data"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		WALSyncImmediate: strings.ToLower(getEnv("WAL_SYNC_IMMEDIATE", "true")) != "false",
		APIPort:          getEnv("API_PORT", "8080"),
		APIHost:          getEnv("API_HOST", "0.0.0.0"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          os.Getenv("LOG_FILE"),
	}
}

// Validate checks that the selected backend has what it needs
func (c *Config) Validate() error {
	if c.QuestionsSource == "" {
		return fmt.Errorf("QUESTIONS_SOURCE is required")
	}

	switch c.StoreBackend {
	case BackendFile, BackendWAL, BackendBadger, BackendMemory:
		if c.StoreBackend != BackendMemory && c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for %s backend", c.StoreBackend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for redis backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
