package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-facenav/pkg/actuator"
	"github.com/teslashibe/go-facenav/pkg/camera"
	"github.com/teslashibe/go-facenav/pkg/gesture"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/web"
)

//go:embed sample_config.yaml
var sampleConfig string

// Frame sources.
const (
	SourceCamera = "camera" // local camera through the landmarker sidecar
	SourcePush   = "push"   // results pushed to /ws/scores
)

// Gesture is the threshold table as written in a config file.
type Gesture struct {
	// Preset seeds every other field; explicit fields override it.
	Preset string `yaml:"preset" toml:"preset"`

	PanThreshold  float64 `yaml:"pan_threshold" toml:"pan_threshold"`
	UpThreshold   float64 `yaml:"up_threshold" toml:"up_threshold"`
	DownThreshold float64 `yaml:"down_threshold" toml:"down_threshold"`
	BrowRise      float64 `yaml:"brow_rise" toml:"brow_rise"`
	BrowFall      float64 `yaml:"brow_fall" toml:"brow_fall"`
	BlinkEngage   float64 `yaml:"blink_engage" toml:"blink_engage"`
	BlinkRelease  float64 `yaml:"blink_release" toml:"blink_release"`
	BlinkHold     string  `yaml:"blink_hold" toml:"blink_hold"`
	ClickDebounce string  `yaml:"click_debounce" toml:"click_debounce"`
	ResumeWindow  string  `yaml:"resume_window" toml:"resume_window"`
	ResumeRaises  int     `yaml:"resume_raises" toml:"resume_raises"`
	MoveStep      int     `yaml:"move_step" toml:"move_step"`
}

// Motion configures the actuator.
type Motion struct {
	PollInterval   string  `yaml:"poll_interval" toml:"poll_interval"`
	Sensitivity    float64 `yaml:"sensitivity" toml:"sensitivity"`
	SpeedIncrement float64 `yaml:"speed_increment" toml:"speed_increment"`
	MaxSpeed       float64 `yaml:"max_speed" toml:"max_speed"`
	Continuity     string  `yaml:"continuity" toml:"continuity"`
}

// Landmarker configures the sidecar connection.
type Landmarker struct {
	URL               string `yaml:"url" toml:"url"`
	HandshakeTimeout  string `yaml:"handshake_timeout" toml:"handshake_timeout"`
	WriteTimeout      string `yaml:"write_timeout" toml:"write_timeout"`
	PingInterval      string `yaml:"ping_interval" toml:"ping_interval"`
	ReconnectDelay    string `yaml:"reconnect_delay" toml:"reconnect_delay"`
	ReconnectMaxDelay string `yaml:"reconnect_max_delay" toml:"reconnect_max_delay"`
}

// Camera configures local capture.
type Camera struct {
	Device    int  `yaml:"device" toml:"device"`
	Width     int  `yaml:"width" toml:"width"`
	Height    int  `yaml:"height" toml:"height"`
	Framerate int  `yaml:"framerate" toml:"framerate"`
	Quality   int  `yaml:"quality" toml:"quality"`
	Mirror    bool `yaml:"mirror" toml:"mirror"`
}

// Web configures the control surface.
type Web struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
}

// Journal configures the SQLite event journal.
type Journal struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Config encapsulates all configuration values for facenav.
type Config struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`
	Pointer  string `yaml:"pointer" toml:"pointer"`
	Source   string `yaml:"source" toml:"source"`
	Tray     bool   `yaml:"tray" toml:"tray"`
	LockPath string `yaml:"lock_path" toml:"lock_path"`

	Gesture    Gesture    `yaml:"gesture" toml:"gesture"`
	Motion     Motion     `yaml:"motion" toml:"motion"`
	Landmarker Landmarker `yaml:"landmarker" toml:"landmarker"`
	Camera     Camera     `yaml:"camera" toml:"camera"`
	Web        Web        `yaml:"web" toml:"web"`
	Journal    Journal    `yaml:"journal" toml:"journal"`
}

// Default returns the built-in configuration.
func Default() Config {
	a := actuator.DefaultConfig()
	l := landmarker.DefaultConfig()
	c := camera.DefaultConfig()

	return Config{
		LogLevel: "info",
		Pointer:  "auto",
		Source:   SourceCamera,
		Tray:     false,
		LockPath: "~/.cache/facenav/facenav.lock",

		Gesture: gestureSection("default", gesture.DefaultConfig()),
		Motion: Motion{
			PollInterval:   a.PollInterval.String(),
			Sensitivity:    a.Sensitivity,
			SpeedIncrement: a.SpeedIncrement,
			MaxSpeed:       a.MaxSpeed,
			Continuity:     a.Continuity.String(),
		},
		Landmarker: Landmarker{
			URL:               l.URL,
			HandshakeTimeout:  l.HandshakeTimeout.String(),
			WriteTimeout:      l.WriteTimeout.String(),
			PingInterval:      l.PingInterval.String(),
			ReconnectDelay:    l.ReconnectDelay.String(),
			ReconnectMaxDelay: l.ReconnectMaxDelay.String(),
		},
		Camera: Camera{
			Device:    c.Device,
			Width:     c.Width,
			Height:    c.Height,
			Framerate: c.Framerate,
			Quality:   c.Quality,
			Mirror:    c.Mirror,
		},
		Web:     Web{Enabled: true, Addr: web.DefaultConfig().Addr},
		Journal: Journal{Enabled: false, Path: "~/.local/share/facenav/journal.db"},
	}
}

func gestureSection(preset string, g gesture.Config) Gesture {
	return Gesture{
		Preset:        preset,
		PanThreshold:  g.PanThreshold,
		UpThreshold:   g.UpThreshold,
		DownThreshold: g.DownThreshold,
		BrowRise:      g.BrowRise,
		BrowFall:      g.BrowFall,
		BlinkEngage:   g.BlinkEngage,
		BlinkRelease:  g.BlinkRelease,
		BlinkHold:     g.BlinkHold.String(),
		ClickDebounce: g.ClickDebounce.String(),
		ResumeWindow:  g.ResumeWindow.String(),
		ResumeRaises:  g.ResumeRaises,
		MoveStep:      g.MoveStep,
	}
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/facenav/config.yaml")
}

// Load locates and parses a configuration file, then applies environment
// overrides. The returned config is normalized and validated. The string is
// the resolved path and the bool reports whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// decode parses data by file extension. A gesture preset named in the
// file is applied before the rest of the file so explicit thresholds win.
func decode(path string, data []byte, cfg *Config) error {
	unmarshal := yaml.Unmarshal
	if isTOML(path) {
		unmarshal = func(b []byte, v any) error {
			return toml.NewDecoder(bytes.NewReader(b)).Decode(v)
		}
	}

	var probe struct {
		Gesture struct {
			Preset string `yaml:"preset" toml:"preset"`
		} `yaml:"gesture" toml:"gesture"`
	}
	if err := unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if name := probe.Gesture.Preset; name != "" {
		if err := cfg.ApplyPreset(name); err != nil {
			return err
		}
	}

	if err := unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	candidates := []string{defaultPath, "facenav.yaml", "facenav.toml"}
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, true, nil
		}
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Pointer = strings.ToLower(strings.TrimSpace(c.Pointer))
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	if c.Motion.Sensitivity < actuator.MinSensitivity {
		c.Motion.Sensitivity = actuator.MinSensitivity
	}

	var err error
	if c.LockPath, err = expandPath(c.LockPath); err != nil {
		return err
	}
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return err
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the embedded sample configuration.
func Sample() string {
	return sampleConfig
}

// ExpandPath resolves "~" and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// ApplyPreset replaces the gesture section with a named preset.
func (c *Config) ApplyPreset(name string) error {
	g, err := gesture.Preset(name)
	if err != nil {
		return &ConfigError{Field: "gesture.preset", Message: err.Error()}
	}
	c.Gesture = gestureSection(name, g)
	return nil
}
