package actuator

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-facenav/pkg/action"
	"github.com/teslashibe/go-facenav/pkg/pointer"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestActuator(t *testing.T) (*Actuator, *action.Slot, *pointer.Virtual, *fakeClock) {
	t.Helper()
	dev := pointer.NewVirtual(1920, 1080)
	slot := &action.Slot{}
	a := New(DefaultConfig(), dev, slot, nil)
	clk := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	a.now = clk.now
	return a, slot, dev, clk
}

func TestTick_MoveStepwise(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	dev.Warp(100, 100)

	slot.Store(action.NewMove(10, 0))
	a.Tick()

	x, y, _ := dev.Position()
	if x != 110 || y != 100 {
		t.Errorf("got (%d,%d), want (110,100)", x, y)
	}
	events := dev.Events()
	if len(events) != 10 {
		t.Fatalf("got %d move events, want 10", len(events))
	}
	for i, e := range events {
		if e.Kind != pointer.EventMove || e.X != 101+i || e.Y != 100 {
			t.Errorf("step %d: got %+v", i, e)
		}
	}
}

func TestTick_MoveDiagonal(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	dev.Warp(100, 100)

	slot.Store(action.NewMove(10, -5))
	a.Tick()

	x, y, _ := dev.Position()
	if x != 110 || y != 95 {
		t.Errorf("got (%d,%d), want (110,95)", x, y)
	}
}

func TestTick_ClampsToScreen(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	dev.Warp(1915, 2)

	slot.Store(action.NewMove(10, -10))
	a.Tick()

	x, y, _ := dev.Position()
	if x != 1919 || y != 0 {
		t.Errorf("got (%d,%d), want (1919,0)", x, y)
	}
	for _, e := range dev.Events() {
		if e.X < 0 || e.X > 1919 || e.Y < 0 || e.Y > 1079 {
			t.Errorf("event outside screen: %+v", e)
		}
	}
	// Steps that clamp to the same point are skipped.
	if n := len(dev.Events()); n != 4 {
		t.Errorf("got %d events, want 4", n)
	}
}

func TestTick_Click(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	dev.Warp(300, 400)

	slot.Store(action.NewClick(action.Right))
	a.Tick()

	events := dev.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != pointer.EventPress || events[1].Kind != pointer.EventRelease {
		t.Errorf("got %+v, want press then release", events)
	}
	for _, e := range events {
		if e.Button != action.Right || e.X != 300 || e.Y != 400 {
			t.Errorf("unexpected event %+v", e)
		}
	}
	if a.Stats().Clicks != 1 {
		t.Errorf("got %d clicks, want 1", a.Stats().Clicks)
	}
}

func TestTick_LastWriteWins(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	dev.Warp(100, 100)

	slot.Store(action.NewMove(10, 0))
	slot.Store(action.NewClick(action.Left))
	a.Tick()

	events := dev.Events()
	if len(events) != 2 || events[0].Kind != pointer.EventPress {
		t.Errorf("got %+v, want only the click", events)
	}
	if x, _, _ := dev.Position(); x != 100 {
		t.Errorf("move should have been discarded, x=%d", x)
	}

	// Nothing left.
	dev.Reset()
	a.Tick()
	if n := len(dev.Events()); n != 0 {
		t.Errorf("got %d events on empty slot", n)
	}
}

func TestRamp(t *testing.T) {
	a, _, _, clk := newTestActuator(t)

	prev := 0.0
	for i := 0; i < 30; i++ {
		if err := a.Apply(action.NewMove(1, 0)); err != nil {
			t.Fatalf("apply: %v", err)
		}
		m := a.Motion().SpeedMultiplier
		if m > a.cfg.MaxSpeed {
			t.Fatalf("move %d: multiplier %v exceeds max", i, m)
		}
		if prev < a.cfg.MaxSpeed && m <= prev {
			t.Fatalf("move %d: multiplier %v did not increase from %v", i, m, prev)
		}
		prev = m
		clk.advance(50 * time.Millisecond)
	}
	if prev != a.cfg.MaxSpeed {
		t.Errorf("got %v, want capped at %v", prev, a.cfg.MaxSpeed)
	}
}

func TestRamp_Resets(t *testing.T) {
	tests := []struct {
		name  string
		third action.Action
		gap   time.Duration
	}{
		{"idle", action.NewMove(0, 0), 10 * time.Millisecond},
		{"direction change", action.NewMove(-5, 0), 10 * time.Millisecond},
		{"axis change", action.NewMove(5, 5), 10 * time.Millisecond},
		{"gap past continuity", action.NewMove(5, 0), 300 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _, _, clk := newTestActuator(t)
			a.Apply(action.NewMove(5, 0))
			clk.advance(10 * time.Millisecond)
			a.Apply(action.NewMove(5, 0))
			if m := a.Motion().SpeedMultiplier; m <= 1.0 {
				t.Fatalf("expected ramp before reset, got %v", m)
			}

			clk.advance(tc.gap)
			a.Apply(tc.third)
			if m := a.Motion().SpeedMultiplier; m != 1.0 {
				t.Errorf("got %v, want 1.0", m)
			}
		})
	}
}

func TestSensitivityScaling(t *testing.T) {
	a, _, dev, _ := newTestActuator(t)
	dev.Warp(100, 100)
	a.SetSensitivity(0.5)

	a.Apply(action.NewMove(10, 0))
	if x, _, _ := dev.Position(); x != 105 {
		t.Errorf("got x=%d, want 105", x)
	}

	a.SetSensitivity(0.01)
	if s := a.Sensitivity(); s != MinSensitivity {
		t.Errorf("got %v, want floor %v", s, MinSensitivity)
	}

	a.SetSensitivity(1e300)
	if s := a.Sensitivity(); s != MaxSensitivity {
		t.Errorf("got %v, want cap %v", s, MaxSensitivity)
	}
	a.SetSensitivity(math.NaN())
	if s := a.Sensitivity(); s != MaxSensitivity {
		t.Errorf("NaN changed sensitivity to %v", s)
	}
}

func TestMove_LargeScaleStopsAtEdge(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
	}{
		{"huge", 1e6},
		{"overflow", 1e300},
		{"infinite", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, dev, _ := newTestActuator(t)
			a.cfg.Sensitivity = tt.scale
			dev.Warp(100, 100)

			start := time.Now()
			if err := a.Apply(action.NewMove(5, 0)); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if d := time.Since(start); d > 50*time.Millisecond {
				t.Errorf("move took %v", d)
			}
			if x, y, _ := dev.Position(); x != 1919 || y != 100 {
				t.Errorf("got (%d,%d), want (1919,100)", x, y)
			}
			if n := len(dev.Events()); n != 1819 {
				t.Errorf("got %d move events, want 1819", n)
			}
		})
	}
}

func TestTick_FailureCounted(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	boom := errors.New("event refused")
	dev.FailWith(boom)

	var got error
	a.OnError = func(_ action.Action, err error) { got = err }

	slot.Store(action.NewClick(action.Left))
	a.Tick()

	if !errors.Is(got, boom) {
		t.Errorf("OnError got %v, want %v", got, boom)
	}
	if s := a.Stats(); s.Failures != 1 || s.Clicks != 0 {
		t.Errorf("got %+v", s)
	}

	// Not retried.
	dev.FailWith(nil)
	a.Tick()
	if n := len(dev.Events()); n != 0 {
		t.Errorf("failed action was retried: %d events", n)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, slot, dev, _ := newTestActuator(t)
	a.now = time.Now
	dev.Warp(100, 100)

	applied := make(chan action.Action, 1)
	a.OnApplied = func(act action.Action) { applied <- act }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	slot.Store(action.NewMove(3, 0))
	select {
	case act := <-applied:
		if act.DX != 3 {
			t.Errorf("got %v", act)
		}
	case <-time.After(time.Second):
		t.Fatal("action was never applied")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.MaxSpeed = 0.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for max_speed < 1")
	}

	high := DefaultConfig()
	high.Sensitivity = MaxSensitivity * 2
	if err := high.Validate(); err == nil {
		t.Error("expected error for sensitivity above the cap")
	}

	low := DefaultConfig()
	low.Sensitivity = 0.01
	low.Normalize()
	if low.Sensitivity != MinSensitivity {
		t.Errorf("got %v, want %v", low.Sensitivity, MinSensitivity)
	}
}
