package tuning

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotVersion is the version written by Export.
const SnapshotVersion = "1.0"

// Params holds the tunables carried by a snapshot. Absent fields keep the
// value of the base preset.
type Params struct {
	Overrides `yaml:",inline"`
	Strategy  string `json:"STRATEGY,omitempty" yaml:"STRATEGY,omitempty"`
}

// Snapshot is a portable copy of a Config.
type Snapshot struct {
	Version   string  `json:"version" yaml:"version"`
	Preset    string  `json:"preset" yaml:"preset"`
	Params    *Params `json:"params,omitempty" yaml:"params,omitempty"`
	Timestamp int64   `json:"exportedAt" yaml:"exportedAt"`
}

// Export captures c for later Import.
func Export(c Config, now time.Time) Snapshot {
	p := &Params{Strategy: string(c.Strategy)}
	for _, f := range fieldOrder {
		p.Overrides = p.Overrides.set(f, c.Get(f))
	}
	return Snapshot{
		Version:   SnapshotVersion,
		Preset:    string(c.Preset),
		Params:    p,
		Timestamp: now.UnixMilli(),
	}
}

// Import rebuilds a Config from s. The snapshot's params are merged over its
// preset, or over Default when the preset is unknown, with the same clamping
// as ApplyOverride. An unknown strategy keeps the base strategy. The result
// keeps the preset name only while it still matches that preset exactly.
func Import(s Snapshot) (Config, error) {
	if s.Version == "" {
		return Config{}, fmt.Errorf("%w: missing version", ErrInvalidSnapshot)
	}
	if s.Params == nil {
		return Config{}, fmt.Errorf("%w: missing params", ErrInvalidSnapshot)
	}

	base := Default()
	if p, err := Resolve(s.Preset); err == nil {
		base = p
	}

	c := Merge(base, s.Params.Overrides)
	if name, _, ok := LookupStrategy(s.Params.Strategy); ok {
		c.Strategy = name
	}
	c.Preset = base.Preset
	if c != base {
		c.Preset = PresetCustom
	}
	return c, nil
}

// JSON encodes the snapshot as indented JSON.
func (s Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// YAML encodes the snapshot as YAML.
func (s Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeSnapshot parses a snapshot in YAML or JSON form.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return s, nil
}
