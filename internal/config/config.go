// Package config provides configuration management for the sat-gbdx client.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	GBDX    GBDXConfig    `envPrefix:"GBDX_"`
	Data    DataConfig    `envPrefix:"SATUTILS_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// GBDXConfig contains GBDX API client configuration.
type GBDXConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://geobigdata.io"`
	Token   string        `env:"TOKEN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// DataConfig controls where downloaded imagery and metadata are written.
// The filename pattern supports ${date}, ${c:id} and ${id} substitutions.
type DataConfig struct {
	Dir      string `env:"DATADIR" envDefault:"./"`
	Filename string `env:"FILENAME" envDefault:"${date}_${c:id}_${id}"`
}

// ServerConfig contains HTTP server configuration for the serve subcommand.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.GBDX.BaseURL == "" {
		return fmt.Errorf("GBDX base URL is required")
	}

	if c.GBDX.Timeout <= 0 {
		return fmt.Errorf("GBDX timeout must be positive, got %s", c.GBDX.Timeout)
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}

	if c.Data.Filename == "" {
		return fmt.Errorf("filename pattern is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// RequireToken returns an error if no GBDX API token is configured.
// Catalog search works without one, but tile and imagery fetches do not.
func (c *Config) RequireToken() error {
	if c.GBDX.Token == "" {
		return fmt.Errorf("GBDX_TOKEN environment variable is not set")
	}
	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
