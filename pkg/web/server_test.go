package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-facenav/pkg/camera"
	"github.com/teslashibe/go-facenav/pkg/journal"
	"github.com/teslashibe/go-facenav/pkg/pause"
	"github.com/teslashibe/go-facenav/pkg/session"
)

type fakeStatus struct{ st session.Status }

func (f fakeStatus) Status() session.Status { return f.st }

type fakeEvents struct {
	events []journal.Event
	err    error
	limit  int
}

func (f *fakeEvents) Recent(ctx context.Context, limit int) ([]journal.Event, error) {
	f.limit = limit
	return f.events, f.err
}

type fakeSensitivity struct{ v float64 }

func (f *fakeSensitivity) Sensitivity() float64     { return f.v }
func (f *fakeSensitivity) SetSensitivity(v float64) { f.v = max(v, 0.1) }

func newTestServer(deps Deps) *Server {
	if deps.Status == nil {
		deps.Status = fakeStatus{st: session.Status{SessionID: "abc", Frames: 7}}
	}
	if deps.Pause == nil {
		deps.Pause = pause.New(false)
	}
	return NewServer(DefaultConfig(), deps, nil)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var out map[string]any
	json.Unmarshal(data, &out)
	return resp.StatusCode, out
}

func TestStatus(t *testing.T) {
	s := newTestServer(Deps{})
	code, body := do(t, s.App(), http.MethodGet, "/api/status", "")
	if code != http.StatusOK {
		t.Fatalf("got status %d", code)
	}
	if body["session_id"] != "abc" || body["frames"] != float64(7) {
		t.Errorf("got %v", body)
	}
}

func TestPauseRoutes(t *testing.T) {
	p := pause.New(false)
	var sources []pause.Source
	p.OnChange(func(_ bool, src pause.Source) { sources = append(sources, src) })
	s := newTestServer(Deps{Pause: p})
	app := s.App()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantCode   int
		wantPaused any
	}{
		{"get initial", http.MethodGet, "/api/pause", "", 200, false},
		{"set paused", http.MethodPut, "/api/pause", `{"paused":true}`, 200, true},
		{"get after set", http.MethodGet, "/api/pause", "", 200, true},
		{"toggle from cli", http.MethodPost, "/api/pause/toggle?source=cli", "", 200, false},
		{"missing field", http.MethodPut, "/api/pause", `{}`, 400, nil},
		{"bad json", http.MethodPut, "/api/pause", `{"paused":`, 400, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, app, tc.method, tc.path, tc.body)
			if code != tc.wantCode {
				t.Fatalf("got %d, want %d (%v)", code, tc.wantCode, body)
			}
			if tc.wantPaused != nil && body["paused"] != tc.wantPaused {
				t.Errorf("got paused=%v, want %v", body["paused"], tc.wantPaused)
			}
		})
	}

	if len(sources) != 2 || sources[0] != pause.SourceWeb || sources[1] != pause.SourceCLI {
		t.Errorf("got change sources %v", sources)
	}
}

func TestEvents(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(Deps{})
		if code, _ := do(t, s.App(), http.MethodGet, "/api/events", ""); code != http.StatusServiceUnavailable {
			t.Errorf("got %d, want 503", code)
		}
	})

	t.Run("limit", func(t *testing.T) {
		store := &fakeEvents{events: []journal.Event{
			{ID: 2, SessionID: "s", At: time.Now(), Kind: journal.KindAction, Detail: "click(left)"},
		}}
		s := newTestServer(Deps{Events: store})

		req := httptest.NewRequest(http.MethodGet, "/api/events?limit=5", nil)
		resp, err := s.App().Test(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var events []journal.Event
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if store.limit != 5 || len(events) != 1 || events[0].Detail != "click(left)" {
			t.Errorf("limit=%d events=%+v", store.limit, events)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		s := newTestServer(Deps{Events: &fakeEvents{}})
		if code, _ := do(t, s.App(), http.MethodGet, "/api/events?limit=0", ""); code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", code)
		}
	})

	t.Run("store error", func(t *testing.T) {
		s := newTestServer(Deps{Events: &fakeEvents{err: errors.New("disk gone")}})
		if code, _ := do(t, s.App(), http.MethodGet, "/api/events", ""); code != http.StatusInternalServerError {
			t.Errorf("got %d, want 500", code)
		}
	})
}

func TestCameraRoutes(t *testing.T) {
	s := newTestServer(Deps{})
	if code, _ := do(t, s.App(), http.MethodGet, "/api/camera", ""); code != http.StatusNotFound {
		t.Errorf("got %d, want 404 without camera", code)
	}

	mgr := camera.NewManager(camera.DefaultConfig())
	s = newTestServer(Deps{Camera: mgr})
	code, body := do(t, s.App(), http.MethodPut, "/api/camera", `{"framerate":20}`)
	if code != http.StatusOK || body["framerate"] != float64(20) {
		t.Errorf("got %d %v", code, body)
	}
	if code, _ := do(t, s.App(), http.MethodPut, "/api/camera", `{"quality":500}`); code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", code)
	}
}

func TestSensitivityRoutes(t *testing.T) {
	sens := &fakeSensitivity{v: 1.0}
	s := newTestServer(Deps{Sensitivity: sens})

	code, body := do(t, s.App(), http.MethodPut, "/api/sensitivity", `{"sensitivity":0.01}`)
	if code != http.StatusOK || body["sensitivity"] != 0.1 {
		t.Errorf("got %d %v", code, body)
	}
	if code, _ := do(t, s.App(), http.MethodPut, "/api/sensitivity", `{}`); code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", code)
	}
}

func TestConfigRoute(t *testing.T) {
	s := newTestServer(Deps{Config: map[string]any{"pointer": "virtual"}})
	code, body := do(t, s.App(), http.MethodGet, "/api/config", "")
	if code != http.StatusOK || body["pointer"] != "virtual" {
		t.Errorf("got %d %v", code, body)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(Deps{})
	if code, _ := do(t, s.App(), http.MethodGet, "/ws/status", ""); code != http.StatusUpgradeRequired {
		t.Errorf("got %d, want 426", code)
	}
}

func TestConfigValidate(t *testing.T) {
	for _, addr := range []string{"", "127.0.0.1:8077", ":9000"} {
		c := Config{Addr: addr}
		if err := c.Validate(); err != nil {
			t.Errorf("%q: %v", addr, err)
		}
	}
	c := Config{Addr: "localhost"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing port")
	}
}
