// Package config provides environment-based configuration for the CLI and server.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of the scraper and the read API. Values come
// from the environment (a .env file is loaded by main before this runs).
type Config struct {
	// Upstream site
	BaseURL    string        `envconfig:"MAGANG_BASE_URL" default:"https://simbelmawa.kemdikbud.go.id/magang/lowongan" validate:"required,url"`
	UserAgent  string        `envconfig:"MAGANG_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
	UseBrowser bool          `envconfig:"MAGANG_USE_BROWSER" default:"false"`
	Timeout    time.Duration `envconfig:"MAGANG_HTTP_TIMEOUT" default:"45s"`

	// Crawl behavior
	MaxConcurrent int           `envconfig:"MAGANG_MAX_CONCURRENT" default:"25" validate:"min=1"`
	RetryCount    int           `envconfig:"MAGANG_RETRY_COUNT" default:"3" validate:"min=1"`
	RetryDelay    time.Duration `envconfig:"MAGANG_RETRY_DELAY" default:"2s"`
	RetryWaveCap  int           `envconfig:"MAGANG_RETRY_WAVE_CAP" default:"50" validate:"min=0"`

	// Storage
	DatabaseURL string `envconfig:"DATABASE_URL" validate:"required"`
	CacheFile   string `envconfig:"MAGANG_CACHE_FILE" default:"database/detail_cache.json" validate:"required"`

	// API server
	ListenAddr string `envconfig:"MAGANG_LISTEN_ADDR" default:":8080"`
	APIKey     string `envconfig:"MAGANG_API_KEY"`
	LogLevel   string `envconfig:"MAGANG_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
