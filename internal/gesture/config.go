// Package gesture recognises the "closed loop" air gesture drawn with a
// fingertip and gates how often it may fire.
package gesture

import (
	"errors"
	"fmt"
)

// Default recognizer settings, tuned for a 640x480 preview at ~60 fps.
const (
	DefaultMaxHistory     = 60
	DefaultMinPoints      = 30
	DefaultCloseThreshold = 60.0
	DefaultMinExtent      = 100.0
	DefaultCooldown       = 120
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Config holds the recognizer thresholds. Distances are in the same units
// as the tracked points (screen pixels); Cooldown is counted in frames.
type Config struct {
	// MaxHistory is the trajectory buffer capacity.
	MaxHistory int `yaml:"max_history" json:"max_history"`

	// MinPoints is the number of samples required before a loop is judged.
	MinPoints int `yaml:"min_points" json:"min_points"`

	// CloseThreshold is the largest newest-to-oldest distance that still
	// counts as a closed loop.
	CloseThreshold float64 `yaml:"close_threshold" json:"close_threshold"`

	// MinExtent is the bounding box width and height a loop must exceed.
	MinExtent float64 `yaml:"min_extent" json:"min_extent"`

	// Cooldown is the number of frames detection stays suppressed after
	// a trigger.
	Cooldown int `yaml:"cooldown" json:"cooldown"`
}

// DefaultConfig returns the recognizer defaults.
func DefaultConfig() Config {
	return Config{
		MaxHistory:     DefaultMaxHistory,
		MinPoints:      DefaultMinPoints,
		CloseThreshold: DefaultCloseThreshold,
		MinExtent:      DefaultMinExtent,
		Cooldown:       DefaultCooldown,
	}
}

// LooseConfig accepts sloppier loops: a wider closing gap and a larger
// required sweep, as used on big projection surfaces.
func LooseConfig() Config {
	cfg := DefaultConfig()
	cfg.CloseThreshold = 100
	cfg.MinExtent = 150
	cfg.Cooldown = 60
	return cfg
}

// Validate checks that every setting is positive.
func (c Config) Validate() error {
	switch {
	case c.MaxHistory <= 0:
		return fmt.Errorf("%w: max_history must be positive (got %d)", ErrInvalidConfig, c.MaxHistory)
	case c.MinPoints <= 0:
		return fmt.Errorf("%w: min_points must be positive (got %d)", ErrInvalidConfig, c.MinPoints)
	case !(c.CloseThreshold > 0):
		return fmt.Errorf("%w: close_threshold must be positive (got %v)", ErrInvalidConfig, c.CloseThreshold)
	case !(c.MinExtent > 0):
		return fmt.Errorf("%w: min_extent must be positive (got %v)", ErrInvalidConfig, c.MinExtent)
	case c.Cooldown <= 0:
		return fmt.Errorf("%w: cooldown must be positive (got %d)", ErrInvalidConfig, c.Cooldown)
	}
	return nil
}

// Preset returns a named configuration: "default" or "loose".
func Preset(name string) (Config, bool) {
	switch name {
	case "", "default":
		return DefaultConfig(), true
	case "loose":
		return LooseConfig(), true
	}
	return Config{}, false
}
