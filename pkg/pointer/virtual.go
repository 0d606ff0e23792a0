package pointer

import (
	"sync"

	"github.com/teslashibe/go-facenav/pkg/action"
)

// EventKind classifies a recorded virtual pointer event.
type EventKind string

const (
	EventMove    EventKind = "move"
	EventPress   EventKind = "press"
	EventRelease EventKind = "release"
)

// Event is one posted pointer event.
type Event struct {
	Kind   EventKind
	X, Y   int
	Button action.Button
}

// Virtual is an in-memory pointer. It records every posted event and can be
// told to fail, which makes it the test double for the actuator.
type Virtual struct {
	mu     sync.Mutex
	x, y   int
	width  int
	height int
	events []Event
	fail   error
}

// NewVirtual returns a virtual pointer centred on a width x height screen.
func NewVirtual(width, height int) *Virtual {
	return &Virtual{width: width, height: height, x: width / 2, y: height / 2}
}

// Warp sets the cursor position without recording an event.
func (v *Virtual) Warp(x, y int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.x, v.y = x, y
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (v *Virtual) FailWith(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fail = err
}

// Events returns a copy of the recorded events.
func (v *Virtual) Events() []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Event, len(v.events))
	copy(out, v.events)
	return out
}

// Reset clears recorded events.
func (v *Virtual) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = nil
}

func (v *Virtual) Position() (int, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fail != nil {
		return 0, 0, v.fail
	}
	return v.x, v.y, nil
}

func (v *Virtual) MoveTo(x, y int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fail != nil {
		return v.fail
	}
	v.x, v.y = x, y
	v.events = append(v.events, Event{Kind: EventMove, X: x, Y: y})
	return nil
}

func (v *Virtual) Press(b action.Button, x, y int) error {
	return v.button(EventPress, b, x, y)
}

func (v *Virtual) Release(b action.Button, x, y int) error {
	return v.button(EventRelease, b, x, y)
}

func (v *Virtual) button(kind EventKind, b action.Button, x, y int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fail != nil {
		return v.fail
	}
	v.events = append(v.events, Event{Kind: kind, X: x, Y: y, Button: b})
	return nil
}

func (v *Virtual) ScreenBounds() (int, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height, nil
}

func (v *Virtual) Close() error {
	return nil
}
