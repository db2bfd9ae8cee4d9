// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Preset is the parameter bundle new sessions start from when a request
	// names none.
	Preset string `koanf:"preset"`

	// Scenario, when set, replaces Preset as the default starting point.
	Scenario string `koanf:"scenario"`

	// Overrides maps tunable field names (e.g. MIN_WEIGHT) to values applied on
	// top of the default preset or scenario.
	Overrides map[string]float64 `koanf:"overrides"`

	// MaxSessions bounds live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// MaxPoolSize caps the candidate pool of one request.
	MaxPoolSize int `koanf:"max_pool_size"`

	// MaxCount caps the items requested in one draw.
	MaxCount int `koanf:"max_count"`

	// SessionTTL evicts sessions idle for longer. Zero keeps them forever.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// JournalPath enables the SQLite round journal when not empty.
	JournalPath string `koanf:"journal_path"`

	// JournalQueueSize bounds rounds waiting to be journaled.
	JournalQueueSize int `koanf:"journal_queue_size"`

	// Seed makes every session's sampling replicable when not zero.
	Seed uint64 `koanf:"seed"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Preset:           "balanced",
		Overrides:        map[string]float64{},
		MaxSessions:      1_000,
		MaxPoolSize:      10_000,
		MaxCount:         100,
		SessionTTL:       2 * time.Hour,
		JournalQueueSize: 1_024,
		ShutdownTimeout:  30 * time.Second,
	}
}
