package gesture

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-facenav/pkg/action"
	"github.com/teslashibe/go-facenav/pkg/debug"
	"github.com/teslashibe/go-facenav/pkg/expression"
	"github.com/teslashibe/go-facenav/pkg/pause"
)

// State is everything the classifier remembers between frames.
// It is created once per session and mutated only by Evaluate.
type State struct {
	// BrowRaised latches on the brow rise edge and clears on the fall edge.
	BrowRaised bool
	// BrowHeld is set when pause begins with the brow up. The brow must drop
	// below BrowFall before a new raise can latch.
	BrowHeld bool
	// LastClickTime anchors the left click debounce.
	LastClickTime time.Time

	// EyeBlinkStart is when the current eye closure crossed BlinkEngage.
	// Zero when no hold is in progress.
	EyeBlinkStart time.Time
	// BlinkFired is set once the current hold produced a right click, so a
	// long closure clicks once.
	BlinkFired bool

	// Double-raise resume counter, only advanced while paused.
	RaiseCount    int
	LastRaiseTime time.Time

	// Running mirrors the shared pause flag, refreshed every frame.
	Running bool
	// Moving is true while the previous frame produced motion.
	Moving bool
}

// Classifier evaluates expression frames against the threshold table.
// It is not safe for concurrent use; the recognition loop owns it.
type Classifier struct {
	cfg    Config
	pause  *pause.Controller
	logger *slog.Logger
	state  State
}

// New creates a classifier. A nil pause controller means never paused.
func New(cfg Config, p *pause.Controller, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		cfg:    cfg,
		pause:  p,
		logger: logger.With("component", "gesture"),
	}
	c.state.Running = !c.paused()
	return c
}

// Config returns the threshold table in use.
func (c *Classifier) Config() Config {
	return c.cfg
}

// State returns a copy of the current gesture state.
func (c *Classifier) State() State {
	return c.state
}

// Reset clears all latches, timers and counters.
func (c *Classifier) Reset() {
	c.state = State{Running: !c.paused()}
}

func (c *Classifier) paused() bool {
	return c.pause != nil && c.pause.Paused()
}

// Evaluate consumes one frame of scores observed at now and returns at most
// one action (None when nothing fires).
//
// An empty frame is a classifier miss: state is left untouched so a single
// dropped frame cannot reset an in-progress hold or latch. A category that is
// missing from a non-empty frame is treated the same way for the gestures that
// read it, except the pan categories, where absence means "not engaged".
func (c *Classifier) Evaluate(scores expression.Scores, now time.Time) action.Action {
	if scores.Empty() {
		return action.Action{}
	}

	c.refreshRunning()
	browFell := c.updateBrow(scores)

	if !c.state.Running {
		c.expireRaises(now)
		if browFell {
			c.countRaise(now)
		}
		return action.Action{}
	}

	var out action.Action

	if c.updateBlink(scores, now) {
		out = action.NewClick(action.Right)
	}

	if browFell {
		if now.Sub(c.state.LastClickTime) >= c.cfg.ClickDebounce {
			c.state.LastClickTime = now
			if out.IsNone() {
				out = action.NewClick(action.Left)
			}
		} else {
			debug.Trace(c.logger, "left click debounced",
				"since_last", now.Sub(c.state.LastClickTime))
		}
	}

	dx, dy := c.motion(scores)
	moving := dx != 0 || dy != 0
	if out.IsNone() {
		switch {
		case moving:
			out = action.NewMove(dx, dy)
		case c.state.Moving:
			out = action.NewMove(0, 0)
		}
	}
	// A click in the frame motion stopped defers the idle move to the next frame.
	c.state.Moving = moving || (c.state.Moving && out.Kind == action.Click)

	return out
}

// refreshRunning mirrors the shared pause flag. Entering pause drops any
// partial gestures so they cannot complete on resume.
func (c *Classifier) refreshRunning() {
	running := !c.paused()
	if running == c.state.Running {
		return
	}
	c.state.Running = running
	if !running {
		if c.state.BrowRaised {
			c.state.BrowRaised = false
			c.state.BrowHeld = true
		}
		c.state.RaiseCount = 0
		c.state.Moving = false
		c.state.EyeBlinkStart = time.Time{}
		c.state.BlinkFired = false
	}
}

// updateBrow advances the brow hysteresis latch and reports a fall edge.
func (c *Classifier) updateBrow(scores expression.Scores) bool {
	v, ok := scores.Get(expression.BrowInnerUp)
	if !ok {
		return false
	}
	if c.state.BrowHeld {
		if v < c.cfg.BrowFall {
			c.state.BrowHeld = false
		}
		return false
	}
	if !c.state.BrowRaised {
		if v > c.cfg.BrowRise {
			c.state.BrowRaised = true
			debug.Trace(c.logger, "brow raised", "score", v)
		}
		return false
	}
	if v < c.cfg.BrowFall {
		c.state.BrowRaised = false
		debug.Trace(c.logger, "brow lowered", "score", v)
		return true
	}
	return false
}

// updateBlink advances the sustained eye-closure timer and reports whether
// the hold just completed.
func (c *Classifier) updateBlink(scores expression.Scores, now time.Time) bool {
	v, ok := scores.Get(expression.EyeBlinkLeft)
	if !ok {
		return false
	}
	if v < c.cfg.BlinkRelease {
		if !c.state.EyeBlinkStart.IsZero() && !c.state.BlinkFired {
			debug.Trace(c.logger, "eye hold cancelled", "held", now.Sub(c.state.EyeBlinkStart))
		}
		c.state.EyeBlinkStart = time.Time{}
		c.state.BlinkFired = false
		return false
	}
	if c.state.EyeBlinkStart.IsZero() {
		if v > c.cfg.BlinkEngage {
			c.state.EyeBlinkStart = now
			debug.Trace(c.logger, "eye hold started", "score", v)
		}
		return false
	}
	if c.state.BlinkFired || now.Sub(c.state.EyeBlinkStart) < c.cfg.BlinkHold {
		return false
	}
	c.state.BlinkFired = true
	return true
}

// motion returns the unit-scaled displacement for this frame.
func (c *Classifier) motion(scores expression.Scores) (dx, dy int) {
	k := c.cfg.MoveStep

	left := above(scores, expression.MouthLeft, c.cfg.PanThreshold)
	right := above(scores, expression.MouthRight, c.cfg.PanThreshold)
	switch {
	case left && !right:
		dx = -k
	case right && !left:
		dx = k
	}

	up := above(scores, expression.MouthShrugUpper, c.cfg.UpThreshold)
	down := above(scores, expression.MouthRollLower, c.cfg.DownThreshold)
	switch {
	case up && !down:
		dy = -k
	case down && !up:
		dy = k
	}
	return dx, dy
}

func (c *Classifier) expireRaises(now time.Time) {
	if c.state.RaiseCount > 0 && now.Sub(c.state.LastRaiseTime) > c.cfg.ResumeWindow {
		debug.Trace(c.logger, "resume window elapsed", "raises", c.state.RaiseCount)
		c.state.RaiseCount = 0
	}
}

func (c *Classifier) countRaise(now time.Time) {
	c.state.RaiseCount++
	c.state.LastRaiseTime = now
	debug.Trace(c.logger, "resume raise counted", "raises", c.state.RaiseCount)

	if c.state.RaiseCount < c.cfg.ResumeRaises {
		return
	}
	c.state.RaiseCount = 0
	c.state.Running = true
	if c.pause != nil {
		c.pause.SetPaused(false, pause.SourceGesture)
	}
	c.logger.Info("resumed by double brow raise")
}

func above(scores expression.Scores, name string, threshold float64) bool {
	v, ok := scores.Get(name)
	return ok && v > threshold
}
