package tuning

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrUnknownField    = errors.New("unknown tunable field")
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrInvalidSnapshot = errors.New("invalid config snapshot")
)
