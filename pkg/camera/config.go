// Package camera captures webcam frames with OpenCV and submits them to the
// face landmarker at a fixed cadence. Frames are mirrored so that moving the
// mouth to the user's left moves the pointer left.
package camera

import "time"

// Config holds camera capture parameters.
// These can be modified at runtime through the Manager.
type Config struct {
	Device    int  `json:"device"`    // OpenCV capture index
	Width     int  `json:"width"`     // Requested frame width in pixels
	Height    int  `json:"height"`    // Requested frame height in pixels
	Framerate int  `json:"framerate"` // Submission cadence in frames per second
	Quality   int  `json:"quality"`   // JPEG quality 1-100
	Mirror    bool `json:"mirror"`    // Flip horizontally before encoding
}

// Capture limits.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 60
)

// DefaultConfig returns the recommended configuration. The landmarker only
// needs a face-sized region, so 640x480 keeps encode and inference cheap.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 15,
		Quality:   80,
		Mirror:    true,
	}
}

// Interval returns the time between submitted frames.
func (c *Config) Interval() time.Duration {
	if c.Framerate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.Framerate)
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must not be negative")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 60")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// sameDevice reports whether switching from c to o can keep the open capture.
func (c Config) sameDevice(o Config) bool {
	return c.Device == o.Device && c.Width == o.Width && c.Height == o.Height
}
