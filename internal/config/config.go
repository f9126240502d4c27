package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// OpenTelemetry settings
	OTelEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"task-tracker"`

	// Task store settings
	SeedSampleTasks bool `envconfig:"SEED_SAMPLE_TASKS" default:"true"`

	// Cross-origin settings for the standalone API
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	CORSMaxAgeSeconds  int      `envconfig:"CORS_MAX_AGE_SECONDS" default:"300"`

	// Settings for the standalone web client
	WebPort           string `envconfig:"WEB_PORT" default:"3000"`
	APIBaseURL        string `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	APITimeoutSeconds int    `envconfig:"API_TIMEOUT_SECONDS" default:"10"`
}

// Load reads an optional .env file and returns configuration from
// environment variables with sensible defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.APITimeoutSeconds <= 0 {
		return nil, errors.New("API_TIMEOUT_SECONDS must be positive")
	}

	return &cfg, nil
}

// APITimeout is the request timeout the web client uses against the API.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// CORSMaxAge is the preflight cache lifetime advertised to browsers.
func (c *Config) CORSMaxAge() time.Duration {
	return time.Duration(c.CORSMaxAgeSeconds) * time.Second
}
