// Package gesture turns per-frame expression scores into pointer actions.
//
// The classifier is a small state machine: hysteresis latches for the brow
// raise, a sustained-hold timer for the eye closure, a click debounce anchor,
// and a double-raise counter that resumes a paused session.
package gesture

import (
	"fmt"
	"time"
)

// Config holds the gesture threshold table. Scores are compared strictly
// (score > engage, score < release).
type Config struct {
	// Pan: mouthLeft / mouthRight above this moves horizontally.
	PanThreshold float64
	// Vertical: mouthShrugUpper moves up, mouthRollLower moves down.
	UpThreshold   float64
	DownThreshold float64

	// Left click: browInnerUp rises above BrowRise, fires on fall below BrowFall.
	BrowRise float64
	BrowFall float64

	// Right click: eyeBlinkLeft held above BlinkEngage for BlinkHold.
	// Dropping below BlinkRelease cancels the hold.
	BlinkEngage  float64
	BlinkRelease float64
	BlinkHold    time.Duration

	// Minimum interval between left clicks.
	ClickDebounce time.Duration

	// While paused, ResumeRaises brow cycles within ResumeWindow resume.
	ResumeWindow time.Duration
	ResumeRaises int

	// Unit displacement per motion frame, before sensitivity and speed ramp.
	MoveStep int
}

// DefaultConfig returns the recommended threshold table.
func DefaultConfig() Config {
	return Config{
		PanThreshold:  0.25,
		UpThreshold:   0.50,
		DownThreshold: 0.30,

		BrowRise: 0.50,
		BrowFall: 0.20,

		BlinkEngage:  0.60,
		BlinkRelease: 0.50,
		BlinkHold:    800 * time.Millisecond,

		ClickDebounce: 500 * time.Millisecond,

		ResumeWindow: 2500 * time.Millisecond,
		ResumeRaises: 2,

		MoveStep: 5,
	}
}

// SensitiveConfig lowers the engage thresholds for users with limited
// facial mobility.
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.PanThreshold = 0.15
	cfg.UpThreshold = 0.35
	cfg.DownThreshold = 0.20
	cfg.BrowRise = 0.35
	cfg.BrowFall = 0.15
	cfg.BlinkEngage = 0.50
	cfg.BlinkRelease = 0.40
	cfg.BlinkHold = 600 * time.Millisecond
	return cfg
}

// RelaxedConfig raises thresholds and lengthens holds to avoid misfires
// from talking or expressive faces.
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.PanThreshold = 0.35
	cfg.UpThreshold = 0.60
	cfg.DownThreshold = 0.40
	cfg.BrowRise = 0.60
	cfg.BrowFall = 0.25
	cfg.BlinkEngage = 0.70
	cfg.BlinkRelease = 0.55
	cfg.BlinkHold = 1200 * time.Millisecond
	cfg.ClickDebounce = 800 * time.Millisecond
	return cfg
}

// Preset returns a named preset: "default", "sensitive" or "relaxed".
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "sensitive":
		return SensitiveConfig(), nil
	case "relaxed":
		return RelaxedConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown gesture preset %q", name)
	}
}

// Validate checks thresholds are in range and hysteresis pairs are ordered.
func (c *Config) Validate() error {
	thresholds := []struct {
		name string
		v    float64
	}{
		{"pan_threshold", c.PanThreshold},
		{"up_threshold", c.UpThreshold},
		{"down_threshold", c.DownThreshold},
		{"brow_rise", c.BrowRise},
		{"brow_fall", c.BrowFall},
		{"blink_engage", c.BlinkEngage},
		{"blink_release", c.BlinkRelease},
	}
	for _, th := range thresholds {
		if th.v < 0 || th.v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", th.name, th.v)
		}
	}
	if c.BrowFall >= c.BrowRise {
		return fmt.Errorf("brow_fall (%v) must be below brow_rise (%v)", c.BrowFall, c.BrowRise)
	}
	if c.BlinkRelease >= c.BlinkEngage {
		return fmt.Errorf("blink_release (%v) must be below blink_engage (%v)", c.BlinkRelease, c.BlinkEngage)
	}
	if c.BlinkHold <= 0 {
		return fmt.Errorf("blink_hold must be positive")
	}
	if c.ClickDebounce < 0 {
		return fmt.Errorf("click_debounce must not be negative")
	}
	if c.ResumeWindow <= 0 {
		return fmt.Errorf("resume_window must be positive")
	}
	if c.ResumeRaises < 1 {
		return fmt.Errorf("resume_raises must be at least 1, got %d", c.ResumeRaises)
	}
	if c.MoveStep <= 0 {
		return fmt.Errorf("move_step must be positive, got %d", c.MoveStep)
	}
	return nil
}
