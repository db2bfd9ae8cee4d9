package tuning

import (
	"fmt"
	"strings"
)

// Info describes a preset or scenario for listings.
type Info struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

var presetInfo = []Info{
	{Key: string(PresetConservative), Name: "Conservative", Description: "Gentle repeat suppression, suited to small event pools"},
	{Key: string(PresetBalanced), Name: "Balanced", Description: "Balanced repeat suppression, the recommended default"},
	{Key: string(PresetAggressive), Name: "Aggressive", Description: "Strong repeat suppression, suited to large event pools"},
	{Key: string(PresetCustom), Name: "Custom", Description: "Balanced baseline open to field overrides"},
}

// Presets lists the known presets in a stable order.
func Presets() []Info {
	return append([]Info(nil), presetInfo...)
}

// Scenario is a recommended preset plus overrides for a kind of game.
type Scenario struct {
	Info
	Preset    PresetName        `json:"preset" yaml:"preset"`
	Overrides map[Field]float64 `json:"overrides" yaml:"overrides"`
}

var scenarios = []Scenario{
	{
		Info:   Info{Key: "smallParty", Name: "Small party", Description: "Few events, small group"},
		Preset: PresetConservative,
		Overrides: map[Field]float64{
			FieldHistoryLength:           6,
			FieldCriticalRepeatThreshold: 4,
			FieldMinWeight:               0.3,
		},
	},
	{
		Info:   Info{Key: "largeParty", Name: "Large party", Description: "Many events, large group"},
		Preset: PresetAggressive,
		Overrides: map[Field]float64{
			FieldHistoryLength:           15,
			FieldCriticalRepeatThreshold: 2,
			FieldMinWeight:               0.05,
		},
	},
	{
		Info:   Info{Key: "longTerm", Name: "Long term", Description: "Many rounds over a long session"},
		Preset: PresetBalanced,
		Overrides: map[Field]float64{
			FieldHistoryLength: 12,
			FieldDecayFactor:   0.85,
		},
	},
	{
		Info:   Info{Key: "quickGame", Name: "Quick game", Description: "Short fast-paced session"},
		Preset: PresetAggressive,
		Overrides: map[Field]float64{
			FieldHistoryLength:    8,
			FieldImmediatePenalty: 0.15,
		},
	},
}

// Scenarios lists the known scenarios in a stable order.
func Scenarios() []Info {
	out := make([]Info, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s.Info)
	}
	return out
}

// ApplyScenario resolves the scenario's preset and applies its overrides.
// Scenario keys are matched case-insensitively.
func ApplyScenario(name string) (Config, error) {
	key := strings.TrimSpace(name)
	for _, s := range scenarios {
		if !strings.EqualFold(s.Key, key) {
			continue
		}
		c, err := Resolve(string(s.Preset))
		if err != nil {
			return Config{}, err
		}
		for _, f := range fieldOrder {
			if v, ok := s.Overrides[f]; ok {
				c, _ = ApplyOverride(c, string(f), v)
			}
		}
		return c, nil
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
}
