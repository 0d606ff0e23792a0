// Package actuator drains the shared action slot at a fixed rate and applies
// each action to the OS pointer. Continuous motion is ramped: a run of
// same-direction moves speeds up until MaxSpeed, and any pause or direction
// change drops back to base speed.
package actuator

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-facenav/pkg/action"
	"github.com/teslashibe/go-facenav/pkg/pointer"
)

// maxStep bounds a single scaled move in pixels. It is larger than any
// display, so it only guards against overflow.
const maxStep = 1 << 16

// MotionState is the ramp state owned by the actuator.
type MotionState struct {
	SpeedMultiplier float64
	LastMoveTime    time.Time

	// Sign of the last non-idle move on each axis.
	lastDirX, lastDirY int
}

// Stats is a snapshot of actuator counters.
type Stats struct {
	Ticks           uint64  `json:"ticks"`
	Moves           uint64  `json:"moves"`
	Clicks          uint64  `json:"clicks"`
	Failures        uint64  `json:"failures"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
}

// Actuator applies actions from a Slot to a pointer Device.
type Actuator struct {
	cfg    Config
	device pointer.Device
	slot   *action.Slot
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	motion MotionState

	// OnApplied is called after an action was posted successfully.
	OnApplied func(a action.Action)
	// OnError is called when the platform refuses an event.
	OnError func(a action.Action, err error)

	ticks    atomic.Uint64
	moves    atomic.Uint64
	clicks   atomic.Uint64
	failures atomic.Uint64
}

// New creates an actuator draining slot into device.
func New(cfg Config, device pointer.Device, slot *action.Slot, logger *slog.Logger) *Actuator {
	cfg.Normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &Actuator{
		cfg:    cfg,
		device: device,
		slot:   slot,
		logger: logger.With("component", "actuator"),
		now:    time.Now,
		motion: MotionState{SpeedMultiplier: 1.0},
	}
}

// SetClock replaces the time source used for the speed ramp. Replays use it
// to run on recorded timestamps. Call before Run.
func (a *Actuator) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// Run polls the slot until ctx is cancelled. At most one action is applied
// per tick.
func (a *Actuator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	a.logger.Info("actuator started",
		"rate_hz", math.Round(1.0/a.cfg.PollInterval.Seconds()),
		"sensitivity", a.Sensitivity(),
		"max_speed", a.cfg.MaxSpeed)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("actuator stopped", "ticks", a.ticks.Load())
			return nil
		case <-ticker.C:
			a.Tick()
		}
	}
}

// Tick drains the slot once and applies whatever was pending.
func (a *Actuator) Tick() {
	a.ticks.Add(1)
	act := a.slot.Take()
	if act.IsNone() {
		return
	}
	if err := a.Apply(act); err != nil {
		a.fail(act, err)
		return
	}
	if a.OnApplied != nil {
		a.OnApplied(act)
	}
}

// Apply performs one action immediately.
func (a *Actuator) Apply(act action.Action) error {
	switch act.Kind {
	case action.Move:
		return a.move(act.DX, act.DY)
	case action.Click:
		return a.click(act.Button)
	}
	return nil
}

func (a *Actuator) move(dx, dy int) error {
	a.mu.Lock()
	if dx == 0 && dy == 0 {
		a.motion.SpeedMultiplier = 1.0
		a.motion.lastDirX, a.motion.lastDirY = 0, 0
		a.mu.Unlock()
		return nil
	}

	now := a.now()
	m := &a.motion
	dirX, dirY := sign(dx), sign(dy)
	continuous := !m.LastMoveTime.IsZero() &&
		now.Sub(m.LastMoveTime) < a.cfg.Continuity &&
		dirX == m.lastDirX && dirY == m.lastDirY
	if continuous {
		m.SpeedMultiplier = math.Min(m.SpeedMultiplier+a.cfg.SpeedIncrement, a.cfg.MaxSpeed)
	} else {
		m.SpeedMultiplier = 1.0
	}
	m.LastMoveTime = now
	m.lastDirX, m.lastDirY = dirX, dirY

	scale := a.cfg.Sensitivity * m.SpeedMultiplier
	a.mu.Unlock()

	sx := scaleStep(dx, scale)
	sy := scaleStep(dy, scale)
	if err := a.walk(sx, sy); err != nil {
		return err
	}
	a.moves.Add(1)
	return nil
}

// walk moves the pointer by (sx, sy) one unit step at a time. The target is
// clamped to the display first, so a move past the edge costs no more steps
// than the distance to it.
func (a *Actuator) walk(sx, sy int) error {
	if sx == 0 && sy == 0 {
		return nil
	}

	w, h, err := a.device.ScreenBounds()
	if err != nil {
		return err
	}
	x0, y0, err := a.device.Position()
	if err != nil {
		return err
	}

	tx, ty := pointer.Clamp(x0+sx, y0+sy, w, h)
	dx, dy := tx-x0, ty-y0
	steps := max(absInt(dx), absInt(dy))

	px, py := x0, y0
	for i := 1; i <= steps; i++ {
		nx := x0 + int(math.Round(float64(dx*i)/float64(steps)))
		ny := y0 + int(math.Round(float64(dy*i)/float64(steps)))
		nx, ny = pointer.Clamp(nx, ny, w, h)
		if nx == px && ny == py {
			continue
		}
		if err := a.device.MoveTo(nx, ny); err != nil {
			return err
		}
		px, py = nx, ny
	}
	return nil
}

// scaleStep scales a unit displacement, bounded to maxStep pixels.
func scaleStep(d int, scale float64) int {
	v := float64(d) * scale
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(-maxStep, math.Min(v, maxStep))))
}

// click posts press then release at the current position.
func (a *Actuator) click(b action.Button) error {
	x, y, err := a.device.Position()
	if err != nil {
		return err
	}
	if err := a.device.Press(b, x, y); err != nil {
		return err
	}
	if err := a.device.Release(b, x, y); err != nil {
		return err
	}
	a.clicks.Add(1)
	a.logger.Debug("click", "button", b, "x", x, "y", y)
	return nil
}

// fail records an actuation failure. Failures are not retried; the next
// gesture produces a fresh action.
func (a *Actuator) fail(act action.Action, err error) {
	n := a.failures.Add(1)
	if n == 1 || n%50 == 0 {
		a.logger.Warn("actuation failed", "action", act.String(), "error", err, "failures", n)
	}
	if a.OnError != nil {
		a.OnError(act, err)
	}
}

// Motion returns a copy of the ramp state.
func (a *Actuator) Motion() MotionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.motion
}

// Sensitivity returns the current sensitivity.
func (a *Actuator) Sensitivity() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Sensitivity
}

// SetSensitivity changes the sensitivity at runtime, bounded to
// [MinSensitivity, MaxSensitivity]. NaN is ignored.
func (a *Actuator) SetSensitivity(v float64) {
	if math.IsNaN(v) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Sensitivity = math.Min(math.Max(v, MinSensitivity), MaxSensitivity)
}

// Stats returns a snapshot of the counters.
func (a *Actuator) Stats() Stats {
	return Stats{
		Ticks:           a.ticks.Load(),
		Moves:           a.moves.Load(),
		Clicks:          a.clicks.Load(),
		Failures:        a.failures.Load(),
		SpeedMultiplier: a.Motion().SpeedMultiplier,
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
