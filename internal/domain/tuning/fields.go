package tuning

import (
	"fmt"
	"math"
	"strings"
)

// Field names one of the seven tunables.
type Field string

// Tunable fields.
const (
	FieldBaseWeight              Field = "BASE_WEIGHT"
	FieldMinWeight               Field = "MIN_WEIGHT"
	FieldImmediatePenalty        Field = "IMMEDIATE_PENALTY"
	FieldRecentPenalty           Field = "RECENT_PENALTY"
	FieldDecayFactor             Field = "DECAY_FACTOR"
	FieldHistoryLength           Field = "HISTORY_LENGTH"
	FieldCriticalRepeatThreshold Field = "CRITICAL_REPEAT_THRESHOLD"
)

var fieldOrder = []Field{
	FieldBaseWeight,
	FieldMinWeight,
	FieldImmediatePenalty,
	FieldRecentPenalty,
	FieldDecayFactor,
	FieldHistoryLength,
	FieldCriticalRepeatThreshold,
}

// Range documents the accepted interval of a field.
type Range struct {
	Field       Field   `json:"field" yaml:"field"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	Default     float64 `json:"default" yaml:"default"`
	Step        float64 `json:"step" yaml:"step"`
	Integer     bool    `json:"integer" yaml:"integer"`
}

// Clamp rounds integer fields and limits v to [Min, Max]. NaN maps to Default.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Default
	}
	if r.Integer {
		v = math.Round(v)
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

var ranges = map[Field]Range{
	FieldBaseWeight: {
		Field: FieldBaseWeight, Name: "Base weight",
		Description: "Initial and ceiling weight of every item",
		Min:         0.1, Max: 2.0, Default: 1.0, Step: 0.1,
	},
	FieldMinWeight: {
		Field: FieldMinWeight, Name: "Minimum weight",
		Description: "Floor for normal penalties so no item is ever excluded",
		Min:         0.01, Max: 0.5, Default: 0.1, Step: 0.01,
	},
	FieldImmediatePenalty: {
		Field: FieldImmediatePenalty, Name: "Immediate penalty",
		Description: "Penalty rate for items picked in the previous round",
		Min:         0.05, Max: 0.8, Default: 0.2, Step: 0.05,
	},
	FieldRecentPenalty: {
		Field: FieldRecentPenalty, Name: "Recent penalty",
		Description: "Penalty rate for items picked in older rounds of the window",
		Min:         0.1, Max: 0.9, Default: 0.5, Step: 0.05,
	},
	FieldDecayFactor: {
		Field: FieldDecayFactor, Name: "Decay factor",
		Description: "Per-round-age falloff of penalty strength",
		Min:         0.3, Max: 0.95, Default: 0.8, Step: 0.05,
	},
	FieldHistoryLength: {
		Field: FieldHistoryLength, Name: "History length",
		Description: "Rounds kept for weighting and repeat statistics",
		Min:         3, Max: 20, Default: 10, Step: 1, Integer: true,
	},
	FieldCriticalRepeatThreshold: {
		Field: FieldCriticalRepeatThreshold, Name: "Critical repeat threshold",
		Description: "Consecutive-round streak that triggers severe suppression",
		Min:         2, Max: 10, Default: 3, Step: 1, Integer: true,
	},
}

// ParseField matches key case-insensitively against the tunable fields.
func ParseField(key string) (Field, error) {
	f := Field(strings.ToUpper(strings.TrimSpace(key)))
	if _, ok := ranges[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return f, nil
}

// Describe lists every tunable with its range in a stable order.
func Describe() []Range {
	out := make([]Range, 0, len(fieldOrder))
	for _, f := range fieldOrder {
		out = append(out, ranges[f])
	}
	return out
}
