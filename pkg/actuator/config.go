package actuator

import (
	"fmt"
	"time"
)

// Sensitivity bounds. Values below MinSensitivity are raised to it; values
// above MaxSensitivity are rejected in config and capped at runtime.
const (
	MinSensitivity = 0.1
	MaxSensitivity = 10.0
)

// Config holds tunable parameters for the actuator loop.
type Config struct {
	// PollInterval is how often the action slot is drained.
	PollInterval time.Duration

	// Sensitivity scales every unit displacement.
	Sensitivity float64

	// Speed ramp: consecutive same-direction moves closer together than
	// Continuity grow the multiplier by SpeedIncrement, up to MaxSpeed.
	SpeedIncrement float64
	MaxSpeed       float64
	Continuity     time.Duration
}

// DefaultConfig returns the recommended actuator configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:   10 * time.Millisecond, // 100Hz
		Sensitivity:    1.0,
		SpeedIncrement: 0.1,
		MaxSpeed:       3.0,
		Continuity:     250 * time.Millisecond,
	}
}

// Normalize applies floors that are corrected rather than rejected.
func (c *Config) Normalize() {
	if c.Sensitivity < MinSensitivity {
		c.Sensitivity = MinSensitivity
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if !(c.Sensitivity > 0 && c.Sensitivity <= MaxSensitivity) {
		return fmt.Errorf("sensitivity must be in (0, %v], got %v", MaxSensitivity, c.Sensitivity)
	}
	if c.SpeedIncrement < 0 {
		return fmt.Errorf("speed_increment must not be negative, got %v", c.SpeedIncrement)
	}
	if c.MaxSpeed < 1 {
		return fmt.Errorf("max_speed must be at least 1.0, got %v", c.MaxSpeed)
	}
	if c.Continuity <= 0 {
		return fmt.Errorf("continuity must be positive")
	}
	return nil
}
