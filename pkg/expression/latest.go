package expression

import (
	"sync"
	"time"
)

// Frame is one landmarker result as seen by the recognition loop.
type Frame struct {
	Scores Scores
	// At is the capture timestamp reported by the landmarker, or the
	// arrival time when the landmarker did not report one.
	At time.Time
	// Seq increases by one for every stored frame.
	Seq uint64
}

// Latest is a single-slot "most recent result" cell. The landmarker callback
// overwrites it from any goroutine; the recognition loop is woken through
// Ready and takes the newest frame. Intermediate frames are dropped.
type Latest struct {
	mu      sync.Mutex
	frame   Frame
	pending bool
	seq     uint64
	dropped uint64
	ready   chan struct{}
}

// NewLatest returns an empty cell.
func NewLatest() *Latest {
	return &Latest{ready: make(chan struct{}, 1)}
}

// Store overwrites the pending frame and wakes the reader.
func (l *Latest) Store(scores Scores, at time.Time) {
	l.mu.Lock()
	if l.pending {
		l.dropped++
	}
	l.seq++
	l.frame = Frame{Scores: scores, At: at, Seq: l.seq}
	l.pending = true
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after Store. A receive does not guarantee a frame is
// still pending; always follow it with Take.
func (l *Latest) Ready() <-chan struct{} {
	return l.ready
}

// Take returns the pending frame and clears the slot.
func (l *Latest) Take() (Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pending {
		return Frame{}, false
	}
	l.pending = false
	return l.frame, true
}

// Dropped returns how many frames were overwritten before being taken.
func (l *Latest) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
