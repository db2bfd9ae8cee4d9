package tuning

import "strings"

// StrategyName names a decay/penalty/recovery triple.
type StrategyName string

// Known strategies.
const (
	StrategyConservative StrategyName = "conservative"
	StrategyBalanced     StrategyName = "balanced"
	StrategyAggressive   StrategyName = "aggressive"
)

// Strategy governs how weights move between rounds.
//
// Decay is the per-age falloff of history penalties, Recovery the fraction of
// the gap to BASE_WEIGHT closed every round. Penalty is the strategy's nominal
// penalty scale; per-round penalty rates come from the Config.
type Strategy struct {
	Decay    float64 `json:"decay" yaml:"decay"`
	Penalty  float64 `json:"penalty" yaml:"penalty"`
	Recovery float64 `json:"recovery" yaml:"recovery"`
}

var strategies = map[StrategyName]Strategy{
	StrategyConservative: {Decay: 0.9, Penalty: 0.3, Recovery: 0.1},
	StrategyBalanced:     {Decay: 0.8, Penalty: 0.2, Recovery: 0.15},
	StrategyAggressive:   {Decay: 0.6, Penalty: 0.1, Recovery: 0.2},
}

// LookupStrategy returns the raw triple of a known strategy.
func LookupStrategy(name string) (StrategyName, Strategy, bool) {
	n := StrategyName(strings.ToLower(strings.TrimSpace(name)))
	st, ok := strategies[n]
	return n, st, ok
}

// StrategyNames lists the known strategies from gentlest to strongest.
func StrategyNames() []StrategyName {
	return []StrategyName{StrategyConservative, StrategyBalanced, StrategyAggressive}
}

// ForPoolSize adapts st to the size of the candidate pool. Small pools repeat
// unavoidably and get gentler updates; large pools get stronger suppression.
func (st Strategy) ForPoolSize(poolSize int) Strategy {
	switch {
	case poolSize <= SmallPoolThreshold:
		st.Decay *= 1.2
		st.Penalty *= 1.5
		st.Recovery *= 0.8
	case poolSize >= LargePoolThreshold:
		st.Decay *= 0.8
		st.Penalty *= 0.7
		st.Recovery *= 1.3
	}
	return st
}
