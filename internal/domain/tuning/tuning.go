// Package tuning resolves the numeric policy of the adaptive selector.
//
// A Config is produced from a named preset, a preset plus field-level
// overrides, or a scenario. Every tunable is validated against its documented
// range by clamping: out-of-range input is recoverable, never an error.
package tuning

import (
	"fmt"
	"math"
	"strings"
)

// Pool-size thresholds that switch the effective strategy. Fixed, not tunable.
const (
	SmallPoolThreshold = 20
	LargePoolThreshold = 100
)

// PresetName names a parameter bundle.
type PresetName string

// Known presets.
const (
	PresetConservative PresetName = "conservative"
	PresetBalanced     PresetName = "balanced"
	PresetAggressive   PresetName = "aggressive"
	PresetCustom       PresetName = "custom"
)

// Config is the concrete parameter set a selector runs with. Treat it as a
// value: every helper in this package returns a modified copy.
type Config struct {
	Preset                  PresetName   `json:"preset" yaml:"preset"`
	BaseWeight              float64      `json:"BASE_WEIGHT" yaml:"BASE_WEIGHT"`
	MinWeight               float64      `json:"MIN_WEIGHT" yaml:"MIN_WEIGHT"`
	ImmediatePenalty        float64      `json:"IMMEDIATE_PENALTY" yaml:"IMMEDIATE_PENALTY"`
	RecentPenalty           float64      `json:"RECENT_PENALTY" yaml:"RECENT_PENALTY"`
	DecayFactor             float64      `json:"DECAY_FACTOR" yaml:"DECAY_FACTOR"`
	HistoryLength           int          `json:"HISTORY_LENGTH" yaml:"HISTORY_LENGTH"`
	CriticalRepeatThreshold int          `json:"CRITICAL_REPEAT_THRESHOLD" yaml:"CRITICAL_REPEAT_THRESHOLD"`
	Strategy                StrategyName `json:"STRATEGY" yaml:"STRATEGY"`
}

// SevereFloor is the lowest weight consecutive-repeat suppression can reach.
func (c Config) SevereFloor() float64 {
	return c.MinWeight * severeFloorRatio
}

// NamedStrategy returns the decay/penalty/recovery triple of the configured
// strategy, with decay taken from DECAY_FACTOR.
func (c Config) NamedStrategy() Strategy {
	st, ok := strategies[c.Strategy]
	if !ok {
		st = strategies[StrategyBalanced]
	}
	st.Decay = c.DecayFactor
	return st
}

// Get returns the value of a tunable field.
func (c Config) Get(f Field) float64 {
	switch f {
	case FieldBaseWeight:
		return c.BaseWeight
	case FieldMinWeight:
		return c.MinWeight
	case FieldImmediatePenalty:
		return c.ImmediatePenalty
	case FieldRecentPenalty:
		return c.RecentPenalty
	case FieldDecayFactor:
		return c.DecayFactor
	case FieldHistoryLength:
		return float64(c.HistoryLength)
	case FieldCriticalRepeatThreshold:
		return float64(c.CriticalRepeatThreshold)
	}
	return math.NaN()
}

func (c Config) with(f Field, v float64) Config {
	switch f {
	case FieldBaseWeight:
		c.BaseWeight = v
	case FieldMinWeight:
		c.MinWeight = v
	case FieldImmediatePenalty:
		c.ImmediatePenalty = v
	case FieldRecentPenalty:
		c.RecentPenalty = v
	case FieldDecayFactor:
		c.DecayFactor = v
	case FieldHistoryLength:
		c.HistoryLength = int(v)
	case FieldCriticalRepeatThreshold:
		c.CriticalRepeatThreshold = int(v)
	}
	return c
}

// normalize keeps the normal floor at or below the ceiling.
func (c Config) normalize() Config {
	if c.MinWeight > c.BaseWeight {
		c.MinWeight = c.BaseWeight
	}
	return c
}

const severeFloorRatio = 0.1

var presets = map[PresetName]Config{
	PresetConservative: {
		Preset:                  PresetConservative,
		BaseWeight:              1.0,
		MinWeight:               0.3,
		ImmediatePenalty:        0.4,
		RecentPenalty:           0.7,
		DecayFactor:             0.9,
		HistoryLength:           6,
		CriticalRepeatThreshold: 4,
		Strategy:                StrategyConservative,
	},
	PresetBalanced: {
		Preset:                  PresetBalanced,
		BaseWeight:              1.0,
		MinWeight:               0.1,
		ImmediatePenalty:        0.2,
		RecentPenalty:           0.5,
		DecayFactor:             0.8,
		HistoryLength:           10,
		CriticalRepeatThreshold: 3,
		Strategy:                StrategyBalanced,
	},
	PresetAggressive: {
		Preset:                  PresetAggressive,
		BaseWeight:              1.0,
		MinWeight:               0.05,
		ImmediatePenalty:        0.1,
		RecentPenalty:           0.3,
		DecayFactor:             0.6,
		HistoryLength:           15,
		CriticalRepeatThreshold: 2,
		Strategy:                StrategyAggressive,
	},
	PresetCustom: {
		Preset:                  PresetCustom,
		BaseWeight:              1.0,
		MinWeight:               0.1,
		ImmediatePenalty:        0.2,
		RecentPenalty:           0.5,
		DecayFactor:             0.8,
		HistoryLength:           10,
		CriticalRepeatThreshold: 3,
		Strategy:                StrategyBalanced,
	},
}

// Default returns the balanced preset.
func Default() Config {
	return presets[PresetBalanced]
}

// Resolve returns the named preset's bundle unmodified. Names are matched
// case-insensitively. Unknown names fail with ErrUnknownPreset; callers fall
// back to Default.
func Resolve(name string) (Config, error) {
	c, ok := presets[PresetName(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return c, nil
}

// ApplyOverride sets one tunable field, clamping value into the field's
// range. Integer fields are rounded first. The result is reported as the
// custom preset. Keys outside the seven tunables fail with ErrUnknownField and
// leave c unchanged.
func ApplyOverride(c Config, key string, value float64) (Config, error) {
	f, err := ParseField(key)
	if err != nil {
		return c, err
	}
	c = c.with(f, ranges[f].Clamp(value))
	c.Preset = PresetCustom
	return c.normalize(), nil
}

// Overrides carries optional per-field values. A nil field keeps the base
// value.
type Overrides struct {
	BaseWeight              *float64 `json:"BASE_WEIGHT,omitempty" yaml:"BASE_WEIGHT,omitempty"`
	MinWeight               *float64 `json:"MIN_WEIGHT,omitempty" yaml:"MIN_WEIGHT,omitempty"`
	ImmediatePenalty        *float64 `json:"IMMEDIATE_PENALTY,omitempty" yaml:"IMMEDIATE_PENALTY,omitempty"`
	RecentPenalty           *float64 `json:"RECENT_PENALTY,omitempty" yaml:"RECENT_PENALTY,omitempty"`
	DecayFactor             *float64 `json:"DECAY_FACTOR,omitempty" yaml:"DECAY_FACTOR,omitempty"`
	HistoryLength           *float64 `json:"HISTORY_LENGTH,omitempty" yaml:"HISTORY_LENGTH,omitempty"`
	CriticalRepeatThreshold *float64 `json:"CRITICAL_REPEAT_THRESHOLD,omitempty" yaml:"CRITICAL_REPEAT_THRESHOLD,omitempty"`
}

// set returns o with field f pointing at a copy of v.
func (o Overrides) set(f Field, v float64) Overrides {
	switch f {
	case FieldBaseWeight:
		o.BaseWeight = &v
	case FieldMinWeight:
		o.MinWeight = &v
	case FieldImmediatePenalty:
		o.ImmediatePenalty = &v
	case FieldRecentPenalty:
		o.RecentPenalty = &v
	case FieldDecayFactor:
		o.DecayFactor = &v
	case FieldHistoryLength:
		o.HistoryLength = &v
	case FieldCriticalRepeatThreshold:
		o.CriticalRepeatThreshold = &v
	}
	return o
}

func (o Overrides) field(f Field) *float64 {
	switch f {
	case FieldBaseWeight:
		return o.BaseWeight
	case FieldMinWeight:
		return o.MinWeight
	case FieldImmediatePenalty:
		return o.ImmediatePenalty
	case FieldRecentPenalty:
		return o.RecentPenalty
	case FieldDecayFactor:
		return o.DecayFactor
	case FieldHistoryLength:
		return o.HistoryLength
	case FieldCriticalRepeatThreshold:
		return o.CriticalRepeatThreshold
	}
	return nil
}

// Empty reports whether no field is set.
func (o Overrides) Empty() bool {
	for _, f := range fieldOrder {
		if o.field(f) != nil {
			return false
		}
	}
	return true
}

// OverridesFromMap converts loosely keyed values (configuration files, env)
// into Overrides. Any key that is not a tunable field is rejected.
func OverridesFromMap(values map[string]float64) (Overrides, error) {
	var o Overrides
	for key, v := range values {
		f, err := ParseField(key)
		if err != nil {
			return Overrides{}, err
		}
		o = o.set(f, v)
	}
	return o, nil
}

// Merge applies every set override to c in field order.
func Merge(c Config, o Overrides) Config {
	for _, f := range fieldOrder {
		if v := o.field(f); v != nil {
			c, _ = ApplyOverride(c, string(f), *v)
		}
	}
	return c
}
