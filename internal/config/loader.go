package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/eventdraw/internal/domain/tuning"
)

// Environment names.
const (
	EnvPrefix     = "EVENTDRAW_"
	EnvConfigFile = "EVENTDRAW_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if EVENTDRAW_CONFIG is set
//  3. env (prefix EVENTDRAW_)
//
// Nested override keys use a double underscore in env names:
// EVENTDRAW_OVERRIDES__MIN_WEIGHT=0.3 sets overrides.MIN_WEIGHT.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if name, field, ok := strings.Cut(s, "__"); ok {
			return strings.ToLower(name) + "." + strings.ToUpper(field)
		}
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	// the config file pointer itself is not a setting
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values. Tunable ranges are not checked here:
// out-of-range overrides are clamped when a session is built.
func (c *Config) Validate(_ context.Context) error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxSessions <= 0 || c.MaxPoolSize <= 0 || c.MaxCount <= 0 {
		return fmt.Errorf("%w: max_sessions, max_pool_size and max_count must be positive", ErrInvalidConfig)
	}
	if c.JournalQueueSize <= 0 {
		return fmt.Errorf("%w: journal_queue_size must be positive", ErrInvalidConfig)
	}
	if c.SessionTTL < 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: session_ttl must not be negative and shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := tuning.OverridesFromMap(c.Overrides); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Scenario != "" {
		if _, err := tuning.ApplyScenario(c.Scenario); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Tuning resolves the default session parameters. An unknown preset falls
// back to balanced and is reported through fellBack.
func (c *Config) Tuning() (cfg tuning.Config, fellBack bool) {
	var err error
	if c.Scenario != "" {
		cfg, err = tuning.ApplyScenario(c.Scenario)
	} else {
		cfg, err = tuning.Resolve(c.Preset)
	}
	if err != nil {
		cfg = tuning.Default()
		fellBack = true
	}

	o, _ := tuning.OverridesFromMap(c.Overrides)
	return tuning.Merge(cfg, o), fellBack
}
