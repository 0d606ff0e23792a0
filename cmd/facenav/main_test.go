package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teslashibe/go-facenav/internal/config"
	"github.com/teslashibe/go-facenav/pkg/journal"
	"github.com/teslashibe/go-facenav/pkg/session"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "facenav.yaml")

	out, err := execute(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("got %q, want path mentioned", out)
	}
	if _, err := execute(t, "config", "init", path); err == nil {
		t.Error("expected error when file exists")
	}
	if _, err := execute(t, "config", "init", "--overwrite", path); err != nil {
		t.Errorf("overwrite: %v", err)
	}

	out, err = execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"browInnerUp", "eyeBlinkLeft", "Preset: default", "Source: camera"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReplay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	lines := []string{
		`{"timestamp_ms":1000,"faces":[{"blendshapes":[{"category_name":"browInnerUp","score":0.1}]}]}`,
		`{"timestamp_ms":1100,"faces":[{"blendshapes":[{"category_name":"browInnerUp","score":0.9}]}]}`,
		`{"timestamp_ms":1200,"faces":[{"blendshapes":[{"category_name":"browInnerUp","score":0.05}]}]}`,
		``,
		`{"timestamp_ms":1300,"faces":[{"blendshapes":[{"category_name":"mouthLeft","score":0.9}]}]}`,
		`{"timestamp_ms":1400,"faces":[]}`,
	}
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "replay", path)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, want := range []string{"click(left)", "move(", "5 frames (1 without a face)", "1 clicks"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReplayBadRecording(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{\"timestamp_ms\":1}\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "replay", path)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("got %v, want line 2 error", err)
	}
}

func TestApplyRunFlags(t *testing.T) {
	cfg := config.Default()
	cmd := newRunCommand(&commandContext{})
	journalPath := filepath.Join(t.TempDir(), "j.db")
	for name, value := range map[string]string{
		"pointer":     "virtual",
		"source":      "push",
		"web":         "127.0.0.1:9100",
		"journal":     journalPath,
		"preset":      "relaxed",
		"sensitivity": "1.5",
	} {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	var f runFlags
	f.pointer, f.source, f.web, f.journal, f.preset, f.sensitivity = "virtual", "push", "127.0.0.1:9100", journalPath, "relaxed", 1.5
	if err := applyRunFlags(cmd, &cfg, f); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if cfg.Pointer != "virtual" || cfg.Source != config.SourcePush {
		t.Errorf("got pointer %q source %q", cfg.Pointer, cfg.Source)
	}
	if cfg.JournalPath() != journalPath {
		t.Errorf("got journal %q, want %q", cfg.JournalPath(), journalPath)
	}
	if cfg.Gesture.Preset != "relaxed" || cfg.Motion.Sensitivity != 1.5 {
		t.Errorf("got preset %q sensitivity %v", cfg.Gesture.Preset, cfg.Motion.Sensitivity)
	}
	if cfg.Camera.Device != 0 {
		t.Errorf("unset camera flag changed device to %d", cfg.Camera.Device)
	}

	cmd = newRunCommand(&commandContext{})
	cmd.Flags().Set("source", "push")
	cfg = config.Default()
	if err := applyRunFlags(cmd, &cfg, runFlags{source: "push", noWeb: true}); err == nil {
		t.Error("expected error for push source without web")
	}
}

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "facenav.lock")
	lock, err := acquireLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	defer lock.Unlock()

	if _, err := acquireLock(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("got %v, want ErrAlreadyRunning", err)
	}
}

func TestRenderSessions(t *testing.T) {
	if got := renderSessions(nil); got != "No sessions recorded." {
		t.Errorf("got %q", got)
	}
	out := renderSessions([]journal.Summary{{
		SessionID: "0123456789abcdef",
		Counts:    map[journal.Kind]int{journal.KindAction: 3},
	}})
	if !strings.Contains(out, "01234567") || strings.Contains(out, "89abcdef") {
		t.Errorf("session id not shortened:\n%s", out)
	}
}

func TestRenderStatus(t *testing.T) {
	st := session.Status{SessionID: "0123456789", Paused: true, Frames: 9, Misses: 2}
	st.Actuator.Clicks = 4
	out := renderStatus(st)
	for _, want := range []string{"01234567", "paused", "9 (2 without a face", "4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
