// Package types contains request and response shapes shared by the service and the HTTP layer.
package types

import (
	"time"

	"github.com/okian/eventdraw/internal/domain/selector"
	"github.com/okian/eventdraw/internal/domain/tuning"
)

// CreateSessionRequest selects the parameters of a new session. Scenario wins
// over Preset; Overrides apply last.
type CreateSessionRequest struct {
	Preset    string             `json:"preset,omitempty"`
	Scenario  string             `json:"scenario,omitempty"`
	Overrides map[string]float64 `json:"overrides,omitempty"`
	Pool      []string           `json:"pool,omitempty"`
}

// SessionInfo describes a live session.
type SessionInfo struct {
	ID        string         `json:"id"`
	Preset    string         `json:"preset"`
	Scenario  string         `json:"scenario,omitempty"`
	Config    tuning.Config  `json:"config"`
	Stats     selector.Stats `json:"stats"`
	CreatedAt time.Time      `json:"createdAt"`
	LastUsed  time.Time      `json:"lastUsed"`
}

// DrawRequest asks for count distinct items from pool.
type DrawRequest struct {
	Pool  []string `json:"pool"`
	Count int      `json:"count"`
}

// DrawResult is the outcome of one round.
type DrawResult struct {
	SessionID string         `json:"sessionId"`
	Round     int            `json:"round"`
	Items     []string       `json:"items"`
	Stats     selector.Stats `json:"stats"`
}

// InitRequest seeds a session's weight table.
type InitRequest struct {
	Pool []string `json:"pool"`
}

// StrategyRequest switches a session's strategy.
type StrategyRequest struct {
	Strategy string `json:"strategy"`
}

// StrategyResult reports whether a strategy switch took effect.
type StrategyResult struct {
	Applied bool           `json:"applied"`
	Stats   selector.Stats `json:"stats"`
}

// WeightsResult lists a session's tracked items by descending weight.
type WeightsResult struct {
	SessionID string                 `json:"sessionId"`
	Weights   []selector.WeightEntry `json:"weights"`
}

// Catalog lists presets, scenarios and tunable ranges.
type Catalog struct {
	Presets    []tuning.Info  `json:"presets,omitempty"`
	Scenarios  []tuning.Info  `json:"scenarios,omitempty"`
	Tunables   []tuning.Range `json:"tunables,omitempty"`
	Strategies []string       `json:"strategies,omitempty"`
}
