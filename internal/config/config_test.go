package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-facenav/internal/config"
	"github.com/teslashibe/go-facenav/pkg/actuator"
	"github.com/teslashibe/go-facenav/pkg/gesture"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "facenav", "config.yaml"); resolved != want {
		t.Errorf("got resolved %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "facenav", "journal.db"); cfg.Journal.Path != want {
		t.Errorf("got journal path %q, want %q", cfg.Journal.Path, want)
	}
	if cfg.JournalPath() != "" {
		t.Errorf("journal should be disabled by default, got %q", cfg.JournalPath())
	}
	if want := filepath.Join(tempHome, ".cache", "facenav", "facenav.lock"); cfg.LockPath != want {
		t.Errorf("got lock path %q, want %q", cfg.LockPath, want)
	}

	g, err := cfg.GestureConfig()
	if err != nil {
		t.Fatalf("gesture: %v", err)
	}
	if g != gesture.DefaultConfig() {
		t.Errorf("got %+v, want defaults", g)
	}
	w, err := cfg.WebConfig()
	if err != nil {
		t.Fatalf("web: %v", err)
	}
	if w.Addr != "127.0.0.1:8077" {
		t.Errorf("got addr %q, want loopback default", w.Addr)
	}
}

func TestLoadYAMLPresetWithOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "facenav.yaml")
	content := `
pointer: virtual
gesture:
  preset: sensitive
  brow_rise: 0.45
motion:
  sensitivity: 2.0
  continuity: 300ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("got resolved %q exists=%v", resolved, exists)
	}

	g, err := cfg.GestureConfig()
	if err != nil {
		t.Fatalf("gesture: %v", err)
	}
	want := gesture.SensitiveConfig()
	want.BrowRise = 0.45
	if g != want {
		t.Errorf("got %+v, want %+v", g, want)
	}

	a, err := cfg.ActuatorConfig()
	if err != nil {
		t.Fatalf("motion: %v", err)
	}
	if a.Sensitivity != 2.0 || a.Continuity != 300*time.Millisecond {
		t.Errorf("got %+v", a)
	}
	if a.PollInterval != actuator.DefaultConfig().PollInterval {
		t.Errorf("got poll interval %v, want default", a.PollInterval)
	}
	if cfg.Pointer != "virtual" {
		t.Errorf("got pointer %q, want virtual", cfg.Pointer)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "facenav.toml")
	content := `
source = "push"

[gesture]
blink_hold = "1s"

[camera]
framerate = 20

[web]
addr = "127.0.0.1:9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Source != config.SourcePush {
		t.Errorf("got source %q, want push", cfg.Source)
	}
	g, _ := cfg.GestureConfig()
	if g.BlinkHold != time.Second {
		t.Errorf("got blink hold %v, want 1s", g.BlinkHold)
	}
	c, _ := cfg.CameraConfig()
	if c.Framerate != 20 || c.Width != 640 {
		t.Errorf("got %+v", c)
	}
	if cfg.Web.Addr != "127.0.0.1:9000" {
		t.Errorf("got addr %q", cfg.Web.Addr)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FACENAV_POINTER", "virtual")
	t.Setenv("FACENAV_SENSITIVITY", "0.01")
	t.Setenv("FACENAV_WEB", "false")
	t.Setenv("FACENAV_CAMERA", "3")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Pointer != "virtual" {
		t.Errorf("got pointer %q", cfg.Pointer)
	}
	if cfg.Motion.Sensitivity != actuator.MinSensitivity {
		t.Errorf("got sensitivity %v, want floor %v", cfg.Motion.Sensitivity, actuator.MinSensitivity)
	}
	if cfg.Camera.Device != 3 {
		t.Errorf("got camera %d, want 3", cfg.Camera.Device)
	}
	w, _ := cfg.WebConfig()
	if w.Addr != "" {
		t.Errorf("got addr %q, want disabled", w.Addr)
	}
}

func TestEnvBadValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FACENAV_TRAY", "sometimes")

	_, _, _, err := config.Load("")
	var cerr *config.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
	if cerr.Field != "FACENAV_TRAY" {
		t.Errorf("got field %q", cerr.Field)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("FACENAV_WEB_ADDR", "")
	os.Unsetenv("FACENAV_WEB_ADDR")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FACENAV_WEB_ADDR=127.0.0.1:9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := config.LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("FACENAV_WEB_ADDR"); got != "127.0.0.1:9999" {
		t.Errorf("got %q, want 127.0.0.1:9999", got)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"},
		{"pointer", func(c *config.Config) { c.Pointer = "wayland" }, "pointer"},
		{"source", func(c *config.Config) { c.Source = "file" }, "source"},
		{"push without web", func(c *config.Config) { c.Source = config.SourcePush; c.Web.Enabled = false }, "web.enabled"},
		{"hysteresis", func(c *config.Config) { c.Gesture.BrowFall = 0.6 }, "gesture"},
		{"duration", func(c *config.Config) { c.Gesture.BlinkHold = "long" }, "gesture.blink_hold"},
		{"max speed", func(c *config.Config) { c.Motion.MaxSpeed = 0.5 }, "motion"},
		{"sensitivity cap", func(c *config.Config) { c.Motion.Sensitivity = 1e6 }, "motion"},
		{"sidecar url", func(c *config.Config) { c.Landmarker.URL = "http://x" }, "landmarker"},
		{"camera", func(c *config.Config) { c.Camera.Framerate = 0 }, "camera"},
		{"web addr", func(c *config.Config) { c.Web.Addr = "nocolon" }, "web.addr"},
		{"journal path", func(c *config.Config) { c.Journal.Enabled = true; c.Journal.Path = "" }, "journal.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cerr *config.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("got %v, want ConfigError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("got field %q, want %q", cerr.Field, tt.field)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestCreateSampleLoadsAsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample not found")
	}

	def := config.Default()
	g, _ := cfg.GestureConfig()
	wantG, _ := def.GestureConfig()
	if g != wantG {
		t.Errorf("sample gesture %+v, want %+v", g, wantG)
	}
	a, _ := cfg.ActuatorConfig()
	wantA, _ := def.ActuatorConfig()
	if a != wantA {
		t.Errorf("sample motion %+v, want %+v", a, wantA)
	}
	if cfg.Camera != def.Camera || cfg.Web != def.Web {
		t.Errorf("sample camera/web differ from defaults")
	}
}
