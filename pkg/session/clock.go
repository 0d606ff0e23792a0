package session

import (
	"sync"
	"time"
)

// maxSkew is how far a mapped frame time may drift from its arrival time
// before the clock re-anchors. Producer clock steps larger than this are
// absorbed at the cost of one interval measured on arrival.
const maxSkew = 2 * time.Second

// frameClock maps producer timestamps in Unix milliseconds onto this
// process's monotonic clock. Intervals between frames come from the
// producer, so capture jitter does not leak into gesture timers, but a wall
// clock step on either side cannot stretch or reverse them.
type frameClock struct {
	mu     sync.Mutex
	base   time.Time
	baseMS int64
}

// at returns the monotonic time for a frame stamped ms that arrived at
// arrived. arrived must carry a monotonic reading (time.Now does).
func (c *frameClock) at(ms int64, arrived time.Time) time.Time {
	if ms <= 0 {
		return arrived
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.base.IsZero() {
		t := c.base.Add(time.Duration(ms-c.baseMS) * time.Millisecond)
		if d := arrived.Sub(t); d > -maxSkew && d < maxSkew {
			return t
		}
	}
	c.base, c.baseMS = arrived, ms
	return arrived
}
