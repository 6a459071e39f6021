// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultListenAddr is the address the HTTP API binds to.
const DefaultListenAddr = ":8080"

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL  string
	GeminiAPIKey string
	GeminiModel  string
	LogLevel     string
	LogJSON      bool
	ListenAddr   string
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables.
// A missing classification credential or database URL fails here, at startup,
// never as a deferred runtime failure mid-classification.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogJSON:      os.Getenv("LOG_JSON") == "true",
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  os.Getenv("OTEL_SERVICE_NAME"),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "taxledger"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.GeminiAPIKey == "" {
		errs = append(errs, "GEMINI_API_KEY is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
