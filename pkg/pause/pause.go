// Package pause holds the process-wide pause flag shared by the gesture
// classifier and the control surfaces (tray menu, web API).
package pause

import (
	"sync"
	"sync/atomic"
)

// Source identifies who changed the flag.
type Source string

const (
	SourceGesture Source = "gesture"
	SourceTray    Source = "tray"
	SourceWeb     Source = "web"
	SourceCLI     Source = "cli"
)

// Listener is called after the flag changes value.
type Listener func(paused bool, src Source)

// Controller is a last-write-wins pause flag. Reads are lock-free.
// The zero value is active (not paused).
type Controller struct {
	paused atomic.Bool

	mu        sync.RWMutex
	listeners []Listener
}

// New returns a controller in the given initial state.
func New(paused bool) *Controller {
	c := &Controller{}
	c.paused.Store(paused)
	return c
}

// Paused reports whether actions are currently suppressed.
func (c *Controller) Paused() bool {
	return c.paused.Load()
}

// SetPaused stores the flag and notifies listeners if it changed.
func (c *Controller) SetPaused(paused bool, src Source) {
	if c.paused.Swap(paused) == paused {
		return
	}
	c.notify(paused, src)
}

// Toggle flips the flag and returns the new value.
func (c *Controller) Toggle(src Source) bool {
	for {
		old := c.paused.Load()
		if c.paused.CompareAndSwap(old, !old) {
			c.notify(!old, src)
			return !old
		}
	}
}

// OnChange registers a listener. Listeners run synchronously on the
// goroutine that changed the flag and must not block.
func (c *Controller) OnChange(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

func (c *Controller) notify(paused bool, src Source) {
	c.mu.RLock()
	ls := make([]Listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.RUnlock()

	for _, l := range ls {
		l(paused, src)
	}
}
