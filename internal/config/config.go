// Package config loads epub2text settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration
type Config struct {
	LogLevel      string      `yaml:"log_level"`
	LogFormat     string      `yaml:"log_format"`      // "text" or "json"
	OutputFormat  string      `yaml:"output_format"`   // "text" or "json"
	Workers       int         `yaml:"workers"`         // concurrent chapter parsing
	MaxTextLength int         `yaml:"max_text_length"` // runes per chapter, 0 = unlimited
	Cover         CoverConfig `yaml:"cover"`
}

// CoverConfig holds cover thumbnail settings
type CoverConfig struct {
	MaxWidth    int `yaml:"max_width"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: "text",
		Workers:      1,
		Cover: CoverConfig{
			MaxWidth:    600,
			JPEGQuality: 90,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ValidLogLevel reports whether level is one of debug, info, warn, warning
// or error, ignoring case.
func ValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if !ValidLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	switch c.OutputFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("output_format must be text or json, got %q", c.OutputFormat))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MaxTextLength < 0 {
		errs = append(errs, fmt.Errorf("max_text_length must not be negative, got %d", c.MaxTextLength))
	}
	if c.Cover.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("cover.max_width must not be negative, got %d", c.Cover.MaxWidth))
	}
	if c.Cover.JPEGQuality < 1 || c.Cover.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("cover.jpeg_quality must be between 1 and 100, got %d", c.Cover.JPEGQuality))
	}
	return errors.Join(errs...)
}
