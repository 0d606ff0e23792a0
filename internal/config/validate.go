package config

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-facenav/pkg/actuator"
	"github.com/teslashibe/go-facenav/pkg/camera"
	"github.com/teslashibe/go-facenav/pkg/gesture"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/pointer"
	"github.com/teslashibe/go-facenav/pkg/web"
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func invalid(field string, err error) error {
	return &ConfigError{Field: field, Message: fmt.Sprintf("%s: %v", field, err)}
}

// Validate ensures the configuration is usable. It returns the first
// problem found as a *ConfigError.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "log_level", Message: fmt.Sprintf("log_level: unknown level %q (debug, info, warn, error)", c.LogLevel)}
	}
	switch pointer.Backend(c.Pointer) {
	case pointer.BackendAuto, pointer.BackendXdotool, pointer.BackendQuartz, pointer.BackendVirtual:
	default:
		return &ConfigError{Field: "pointer", Message: fmt.Sprintf("pointer: unknown backend %q (auto, xdotool, quartz, virtual)", c.Pointer)}
	}
	switch c.Source {
	case SourceCamera, SourcePush:
	default:
		return &ConfigError{Field: "source", Message: fmt.Sprintf("source: unknown source %q (camera, push)", c.Source)}
	}
	if c.Source == SourcePush && !c.Web.Enabled {
		return &ConfigError{Field: "web.enabled", Message: "web.enabled: push source needs the web server"}
	}
	if c.LockPath == "" {
		return &ConfigError{Field: "lock_path", Message: "lock_path is required"}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return &ConfigError{Field: "journal.path", Message: "journal.path is required when the journal is enabled"}
	}

	if _, err := c.GestureConfig(); err != nil {
		return err
	}
	if _, err := c.ActuatorConfig(); err != nil {
		return err
	}
	if _, err := c.LandmarkerConfig(); err != nil {
		return err
	}
	if _, err := c.CameraConfig(); err != nil {
		return err
	}
	if _, err := c.WebConfig(); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, invalid(field, err)
	}
	return d, nil
}

// GestureConfig converts the gesture section.
func (c *Config) GestureConfig() (gesture.Config, error) {
	g := c.Gesture
	out := gesture.Config{
		PanThreshold:  g.PanThreshold,
		UpThreshold:   g.UpThreshold,
		DownThreshold: g.DownThreshold,
		BrowRise:      g.BrowRise,
		BrowFall:      g.BrowFall,
		BlinkEngage:   g.BlinkEngage,
		BlinkRelease:  g.BlinkRelease,
		ResumeRaises:  g.ResumeRaises,
		MoveStep:      g.MoveStep,
	}
	var err error
	if out.BlinkHold, err = parseDuration("gesture.blink_hold", g.BlinkHold); err != nil {
		return gesture.Config{}, err
	}
	if out.ClickDebounce, err = parseDuration("gesture.click_debounce", g.ClickDebounce); err != nil {
		return gesture.Config{}, err
	}
	if out.ResumeWindow, err = parseDuration("gesture.resume_window", g.ResumeWindow); err != nil {
		return gesture.Config{}, err
	}
	if err := out.Validate(); err != nil {
		return gesture.Config{}, invalid("gesture", err)
	}
	return out, nil
}

// ActuatorConfig converts the motion section.
func (c *Config) ActuatorConfig() (actuator.Config, error) {
	m := c.Motion
	out := actuator.Config{
		Sensitivity:    m.Sensitivity,
		SpeedIncrement: m.SpeedIncrement,
		MaxSpeed:       m.MaxSpeed,
	}
	var err error
	if out.PollInterval, err = parseDuration("motion.poll_interval", m.PollInterval); err != nil {
		return actuator.Config{}, err
	}
	if out.Continuity, err = parseDuration("motion.continuity", m.Continuity); err != nil {
		return actuator.Config{}, err
	}
	out.Normalize()
	if err := out.Validate(); err != nil {
		return actuator.Config{}, invalid("motion", err)
	}
	return out, nil
}

// LandmarkerConfig converts the landmarker section.
func (c *Config) LandmarkerConfig() (landmarker.Config, error) {
	l := c.Landmarker
	out := landmarker.Config{URL: l.URL}
	durations := []struct {
		field string
		value string
		dst   *time.Duration
	}{
		{"landmarker.handshake_timeout", l.HandshakeTimeout, &out.HandshakeTimeout},
		{"landmarker.write_timeout", l.WriteTimeout, &out.WriteTimeout},
		{"landmarker.ping_interval", l.PingInterval, &out.PingInterval},
		{"landmarker.reconnect_delay", l.ReconnectDelay, &out.ReconnectDelay},
		{"landmarker.reconnect_max_delay", l.ReconnectMaxDelay, &out.ReconnectMaxDelay},
	}
	for _, d := range durations {
		v, err := parseDuration(d.field, d.value)
		if err != nil {
			return landmarker.Config{}, err
		}
		*d.dst = v
	}
	if err := out.Validate(); err != nil {
		return landmarker.Config{}, invalid("landmarker", err)
	}
	return out, nil
}

// CameraConfig converts the camera section.
func (c *Config) CameraConfig() (camera.Config, error) {
	out := camera.Config{
		Device:    c.Camera.Device,
		Width:     c.Camera.Width,
		Height:    c.Camera.Height,
		Framerate: c.Camera.Framerate,
		Quality:   c.Camera.Quality,
		Mirror:    c.Camera.Mirror,
	}
	if errs := out.Validate(); len(errs) > 0 {
		return camera.Config{}, &ConfigError{Field: "camera", Message: "camera: " + errs[0]}
	}
	return out, nil
}

// WebConfig converts the web section. A disabled server has an empty
// address.
func (c *Config) WebConfig() (web.Config, error) {
	out := web.Config{}
	if c.Web.Enabled {
		out.Addr = c.Web.Addr
	}
	if err := out.Validate(); err != nil {
		return web.Config{}, invalid("web.addr", err)
	}
	return out, nil
}

// JournalPath returns the journal database path, or "" when disabled.
func (c *Config) JournalPath() string {
	if !c.Journal.Enabled {
		return ""
	}
	return c.Journal.Path
}
