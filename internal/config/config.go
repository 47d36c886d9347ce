// Package config provides configuration loading and validation for the CLI and API server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Log output formats.
const (
	LogFormatLogfmt = "logfmt"
	LogFormatJSON   = "json"
)

// DefaultPort is the API port used when neither the file, the environment nor a flag sets one.
const DefaultPort = 8080

// Config represents settings that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or environment variables.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Port        int    `json:"port,omitempty"`         // API listen port
	LogFormat   string `json:"log_format,omitempty"`   // logfmt or json
	Verbose     bool   `json:"verbose,omitempty"`      // Enable debug logging
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}

	switch c.LogFormat {
	case "", LogFormatLogfmt, LogFormatJSON:
	default:
		return fmt.Errorf("config error: 'log_format' must be %q or %q, got %q", LogFormatLogfmt, LogFormatJSON, c.LogFormat)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.LogFormat == "" {
		result.LogFormat = LogFormatLogfmt
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// FromEnv returns the settings present in the environment (DATABASE_URL,
// PORT, LOG_FORMAT). Unset or unparsable values are left empty.
func FromEnv() Config {
	var cfg Config
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LogFormat = os.Getenv("LOG_FORMAT")
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = port
	}
	return cfg
}
