// Package config provides configuration management for the POP3 server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// FileConfig is the top-level wrapper for the configuration file. Shared
// settings live under [server]; POP3-specific settings under [popd] take
// precedence.
type FileConfig struct {
	Server ServerConfig `toml:"server"`
	Popd   Config       `toml:"popd"`
}

// ServerConfig holds shared settings used by all mail services.
type ServerConfig struct {
	Hostname string `toml:"hostname"`
	Maildir  string `toml:"maildir"`
	AuthDB   string `toml:"auth_db"`
}

// Config holds the POP3 server configuration.
type Config struct {
	Hostname  string           `toml:"hostname"`
	LogLevel  string           `toml:"log_level"`
	Listeners []ListenerConfig `toml:"listeners"`
	Maildir   string           `toml:"maildir"`
	AuthDB    string           `toml:"auth_db"`
	Timeouts  TimeoutsConfig   `toml:"timeouts"`
	Limits    LimitsConfig     `toml:"limits"`
	Metrics   MetricsConfig    `toml:"metrics"`
}

// ListenerConfig defines settings for a single listener.
type ListenerConfig struct {
	Address string `toml:"address"`
}

// TimeoutsConfig defines timeout durations as parseable duration strings.
type TimeoutsConfig struct {
	Command string `toml:"command"`
	Idle    string `toml:"idle"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	MaxConnections int `toml:"max_connections"`
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		Hostname: "localhost",
		LogLevel: "info",
		Listeners: []ListenerConfig{
			{Address: "127.0.0.1:1110"},
		},
		Maildir: "Maildir",
		AuthDB:  "popd-auth.db",
		Timeouts: TimeoutsConfig{
			Command: "1m",
			Idle:    "10m",
		},
		Limits: LimitsConfig{
			MaxConnections: 100,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9101",
			Path:    "/metrics",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}

	if len(c.Listeners) == 0 {
		return errors.New("at least one listener is required")
	}

	for i, l := range c.Listeners {
		if l.Address == "" {
			return fmt.Errorf("listener %d: address is required", i)
		}
	}

	if c.Maildir == "" {
		return errors.New("maildir path is required")
	}

	if c.AuthDB == "" {
		return errors.New("auth_db path is required")
	}

	if c.Limits.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}

	if c.Timeouts.Command != "" {
		if _, err := time.ParseDuration(c.Timeouts.Command); err != nil {
			return fmt.Errorf("invalid command timeout: %w", err)
		}
	}

	if c.Timeouts.Idle != "" {
		if _, err := time.ParseDuration(c.Timeouts.Idle); err != nil {
			return fmt.Errorf("invalid idle timeout: %w", err)
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	return nil
}

// CommandTimeout returns the per-command timeout as a time.Duration.
// Returns 1 minute if not configured or invalid.
func (c *TimeoutsConfig) CommandTimeout() time.Duration {
	if c.Command == "" {
		return 1 * time.Minute
	}
	d, err := time.ParseDuration(c.Command)
	if err != nil {
		return 1 * time.Minute
	}
	return d
}

// IdleTimeout returns the idle timeout as a time.Duration.
// Returns 10 minutes if not configured or invalid, per the RFC 1939
// autologout recommendation.
func (c *TimeoutsConfig) IdleTimeout() time.Duration {
	if c.Idle == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(c.Idle)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}
