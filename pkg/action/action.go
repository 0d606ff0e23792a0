// Package action defines the pointer actions emitted by the gesture classifier
// and the single-slot cell that hands them to the actuator.
package action

import (
	"fmt"
	"sync/atomic"
)

// Kind tags the active variant of an Action.
type Kind int

const (
	// None means no action is pending.
	None Kind = iota
	// Move is a relative pointer displacement.
	Move
	// Click is an instantaneous button click.
	Click
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Click:
		return "click"
	default:
		return "none"
	}
}

// Button identifies a pointer button.
type Button int

const (
	Left Button = iota
	Right
)

func (b Button) String() string {
	if b == Right {
		return "right"
	}
	return "left"
}

// Action is a tagged variant: exactly one of Move or Click, or None.
// DX and DY are unit-scaled; the actuator applies sensitivity and speed.
type Action struct {
	Kind   Kind
	DX, DY int
	Button Button
}

// NewMove returns a Move action.
func NewMove(dx, dy int) Action {
	return Action{Kind: Move, DX: dx, DY: dy}
}

// NewClick returns a Click action.
func NewClick(b Button) Action {
	return Action{Kind: Click, Button: b}
}

// IsNone reports whether a is the empty action.
func (a Action) IsNone() bool {
	return a.Kind == None
}

// IsIdle reports whether a is the explicit Move(0,0) idle signal.
func (a Action) IsIdle() bool {
	return a.Kind == Move && a.DX == 0 && a.DY == 0
}

func (a Action) String() string {
	switch a.Kind {
	case Move:
		return fmt.Sprintf("move(%d,%d)", a.DX, a.DY)
	case Click:
		return fmt.Sprintf("click(%s)", a.Button)
	default:
		return "none"
	}
}

// Slot holds at most one pending Action. Store overwrites whatever is
// pending; Take drains it. Both are lock-free and safe across goroutines.
type Slot struct {
	p           atomic.Pointer[Action]
	overwritten atomic.Uint64
}

// Store publishes a, replacing any unconsumed action. Storing None clears the slot.
func (s *Slot) Store(a Action) {
	var prev *Action
	if a.IsNone() {
		prev = s.p.Swap(nil)
	} else {
		prev = s.p.Swap(&a)
	}
	if prev != nil && !a.IsNone() {
		s.overwritten.Add(1)
	}
}

// Take atomically returns the pending action and leaves the slot empty.
// An empty slot yields None.
func (s *Slot) Take() Action {
	p := s.p.Swap(nil)
	if p == nil {
		return Action{}
	}
	return *p
}

// Peek returns the pending action without consuming it.
func (s *Slot) Peek() Action {
	p := s.p.Load()
	if p == nil {
		return Action{}
	}
	return *p
}

// Overwritten counts actions that were replaced before the actuator took them.
func (s *Slot) Overwritten() uint64 {
	return s.overwritten.Load()
}
