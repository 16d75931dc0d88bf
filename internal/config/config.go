// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config holding the defaults.
// - Load(ctx) layers a YAML file, a dotenv file and the environment on top.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PollEnabled turns the poll channel on or off.
	PollEnabled bool `koanf:"poll_enabled"`

	// PollURL is the game data endpoint polled for snapshots.
	PollURL string `koanf:"poll_url"`

	// PollIntervalMS is the poll period in milliseconds.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// PollTimeoutMS bounds each poll request; 0 uses the interval.
	PollTimeoutMS int `koanf:"poll_timeout_ms"`

	// QueueSize bounds the pending update queue.
	QueueSize int `koanf:"queue_size"`

	// WSBuffer is the per-client send buffer of the live stream.
	WSBuffer int `koanf:"ws_buffer"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		PollEnabled:    true,
		PollURL:        "http://localhost:8000/api/game-data",
		PollIntervalMS: 1000,
		PollTimeoutMS:  0,
		QueueSize:      16,
		WSBuffer:       4,
	}
}

// PollInterval returns the poll period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// PollTimeout returns the per-request bound, falling back to the interval.
func (c *Config) PollTimeout() time.Duration {
	if c.PollTimeoutMS <= 0 {
		return c.PollInterval()
	}
	return time.Duration(c.PollTimeoutMS) * time.Millisecond
}
