// Package config loads parley configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all parley configuration.
type Config struct {
	// Server configuration
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`

	// Chat defaults
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Streaming bool   `yaml:"streaming"`

	// Transcript persistence
	TranscriptDir string `yaml:"transcript_dir"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:   "http://127.0.0.1:8000",
		Timeout:   "60s",
		Streaming: true,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "parley", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// RequestTimeout parses the configured timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parse timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %q", c.Timeout)
	}
	return d, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PARLEY_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PARLEY_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv("PARLEY_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("PARLEY_TRANSCRIPT_DIR"); v != "" {
		c.TranscriptDir = v
	}
}
