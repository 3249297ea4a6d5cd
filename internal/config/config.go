// Package config loads and validates the host configuration.
//
// DESIGN: Configuration comes from YAML. The CLI falls back to an embedded
// default file, so every field below is present in at least one place.
//
// FILES:
//   - config.go:     Root Config struct, Load(), Validate()
//   - features.go:   Per-feature enablement and hook priorities
//   - monitoring.go: Logging settings
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Store types.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the root configuration for the host.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings
	Store      StoreConfig      `yaml:"store"`      // Document store
	Monitoring MonitoringConfig `yaml:"monitoring"` // Logging
	Features   FeaturesConfig   `yaml:"features"`   // Feature modules wired into hooks
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"` // Max time to write response
}

// StoreConfig contains document store settings.
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" or "sqlite"
	Path string `yaml:"path"` // SQLite database file (sqlite only)
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands ${VAR} and ${VAR:-default}.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, env overrides, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides lets deployments move the database and change verbosity
// without editing the config file.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("ANTIARCHY_STORE_PATH"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("ANTIARCHY_LOG_LEVEL"); level != "" {
		c.Monitoring.LogLevel = level
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}

	switch c.Store.Type {
	case "":
		return fmt.Errorf("store.type is required")
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite store")
		}
	default:
		return fmt.Errorf("invalid store.type: %q (must be %q or %q)", c.Store.Type, StoreMemory, StoreSQLite)
	}

	if err := c.Monitoring.Validate(); err != nil {
		return err
	}

	return c.Features.Validate()
}
