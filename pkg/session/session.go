// Package session wires the recognition loop to the actuator for one run of
// facenav. Landmarker results land in a single-slot cell, the recognition
// loop evaluates the newest one and writes at most one action into the
// shared slot, and the actuator drains that slot on its own ticker.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-facenav/pkg/action"
	"github.com/teslashibe/go-facenav/pkg/actuator"
	"github.com/teslashibe/go-facenav/pkg/debug"
	"github.com/teslashibe/go-facenav/pkg/expression"
	"github.com/teslashibe/go-facenav/pkg/gesture"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/pause"
	"github.com/teslashibe/go-facenav/pkg/pointer"
)

// EventKind classifies a session event.
type EventKind string

const (
	EventStart   EventKind = "session_start"
	EventEnd     EventKind = "session_end"
	EventAction  EventKind = "action"
	EventPause   EventKind = "pause"
	EventResume  EventKind = "resume"
	EventFailure EventKind = "failure"
)

// Event is something observers of a session may want to know about.
type Event struct {
	Kind   EventKind
	At     time.Time
	Action action.Action // set for EventAction and EventFailure
	Source pause.Source  // set for EventPause and EventResume
	Err    error         // set for EventFailure
}

// Detail renders the event payload as a short string.
func (e Event) Detail() string {
	switch e.Kind {
	case EventAction:
		return e.Action.String()
	case EventFailure:
		if e.Err != nil {
			return e.Action.String() + ": " + e.Err.Error()
		}
		return e.Action.String()
	case EventPause, EventResume:
		return string(e.Source)
	}
	return ""
}

// Observer receives session events. Observers run on the goroutine that
// produced the event, must not block, and must not call back into the
// session.
type Observer func(Event)

// Status is a point-in-time view of a session.
type Status struct {
	SessionID     string         `json:"session_id"`
	Started       time.Time      `json:"started"`
	Paused        bool           `json:"paused"`
	Frames        uint64         `json:"frames"`
	Misses        uint64         `json:"misses"`
	DroppedFrames uint64         `json:"dropped_frames"`
	Overwritten   uint64         `json:"overwritten_actions"`
	Actuator      actuator.Stats `json:"actuator"`
	Gesture       GestureStatus  `json:"gesture"`
}

// GestureStatus is the externally visible part of the gesture state.
type GestureStatus struct {
	BrowRaised bool `json:"brow_raised"`
	Blinking   bool `json:"blinking"`
	RaiseCount int  `json:"raise_count"`
	Moving     bool `json:"moving"`
}

// Session owns the per-run state: gesture state, motion state, the action
// slot and the latest-result cell.
type Session struct {
	id      string
	started time.Time
	logger  *slog.Logger

	latest     *expression.Latest
	clock      frameClock
	slot       *action.Slot
	pause      *pause.Controller
	classifier *gesture.Classifier
	actuator   *actuator.Actuator

	// gestureMu guards the classifier state for Status readers.
	gestureMu sync.Mutex

	obsMu     sync.RWMutex
	observers []Observer

	frames atomic.Uint64
	misses atomic.Uint64
}

// New creates a session driving dev. The pause controller is shared with
// the control surfaces and must not be nil.
func New(gcfg gesture.Config, acfg actuator.Config, dev pointer.Device, p *pause.Controller, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id[:8])

	s := &Session{
		id:         id,
		started:    time.Now(),
		logger:     logger.With("component", "session"),
		latest:     expression.NewLatest(),
		slot:       &action.Slot{},
		pause:      p,
		classifier: gesture.New(gcfg, p, logger),
	}
	s.actuator = actuator.New(acfg, dev, s.slot, logger)
	s.actuator.OnApplied = func(a action.Action) {
		if a.IsIdle() {
			return
		}
		s.emit(Event{Kind: EventAction, At: time.Now(), Action: a})
	}
	s.actuator.OnError = func(a action.Action, err error) {
		s.emit(Event{Kind: EventFailure, At: time.Now(), Action: a, Err: err})
	}
	p.OnChange(func(paused bool, src pause.Source) {
		kind := EventResume
		if paused {
			kind = EventPause
		}
		s.logger.Info("pause changed", "paused", paused, "source", src)
		s.emit(Event{Kind: kind, At: time.Now(), Source: src})
	})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Actuator exposes the actuator for runtime tuning.
func (s *Session) Actuator() *actuator.Actuator {
	return s.actuator
}

// Pause returns the shared pause controller.
func (s *Session) Pause() *pause.Controller {
	return s.pause
}

// Observe registers an observer for session events.
func (s *Session) Observe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Session) emit(ev Event) {
	s.obsMu.RLock()
	observers := s.observers
	s.obsMu.RUnlock()
	for _, o := range observers {
		o(ev)
	}
}

// HandleResult is the landmarker ResultHandler. It may be called from any
// goroutine and never blocks. Result timestamps are mapped onto the
// monotonic clock before they reach the gesture timers.
func (s *Session) HandleResult(r landmarker.Result) {
	s.latest.Store(r.Scores(), s.clock.at(r.TimestampMS, time.Now()))
}

// Submit stores scores observed at at, for sources that are not a
// landmarker.
func (s *Session) Submit(scores expression.Scores, at time.Time) {
	s.latest.Store(scores, at)
}

// Run starts the recognition loop and the actuator and blocks until ctx is
// cancelled or either fails.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started", "paused", s.pause.Paused())
	s.emit(Event{Kind: EventStart, At: time.Now()})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.recognize(ctx) })
	g.Go(func() error { return s.actuator.Run(ctx) })
	err := g.Wait()

	st := s.Status()
	s.logger.Info("session ended",
		"duration", time.Since(s.started).Round(time.Second),
		"frames", st.Frames,
		"clicks", st.Actuator.Clicks,
		"failures", st.Actuator.Failures)
	s.emit(Event{Kind: EventEnd, At: time.Now()})
	return err
}

// recognize evaluates the newest frame each time the cell is signalled.
func (s *Session) recognize(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.latest.Ready():
			frame, ok := s.latest.Take()
			if !ok {
				continue
			}
			s.Evaluate(frame.Scores, frame.At)
		}
	}
}

// Evaluate runs the classifier on one frame and publishes the resulting
// action to the actuator slot.
func (s *Session) Evaluate(scores expression.Scores, at time.Time) action.Action {
	s.frames.Add(1)
	if scores.Empty() {
		s.misses.Add(1)
	}

	s.gestureMu.Lock()
	a := s.classifier.Evaluate(scores, at)
	s.gestureMu.Unlock()

	if !a.IsNone() {
		debug.Trace(s.logger, "action", "action", a.String())
		s.slot.Store(a)
	}
	return a
}

// Slot returns the action slot drained by the actuator.
func (s *Session) Slot() *action.Slot {
	return s.slot
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.gestureMu.Lock()
	gs := s.classifier.State()
	s.gestureMu.Unlock()

	return Status{
		SessionID:     s.id,
		Started:       s.started,
		Paused:        s.pause.Paused(),
		Frames:        s.frames.Load(),
		Misses:        s.misses.Load(),
		DroppedFrames: s.latest.Dropped(),
		Overwritten:   s.slot.Overwritten(),
		Actuator:      s.actuator.Stats(),
		Gesture: GestureStatus{
			BrowRaised: gs.BrowRaised,
			Blinking:   !gs.EyeBlinkStart.IsZero(),
			RaiseCount: gs.RaiseCount,
			Moving:     gs.Moving,
		},
	}
}

// GestureConfig returns the threshold table in use.
func (s *Session) GestureConfig() gesture.Config {
	return s.classifier.Config()
}
