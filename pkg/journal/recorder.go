package journal

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// flushInterval bounds how long an event waits before being written.
const flushInterval = time.Second

// Recorder buffers events for one session and writes them in batches so
// that callers on the hot path never wait on disk.
type Recorder struct {
	store   *Store
	session string
	logger  *slog.Logger

	events  chan Event
	dropped atomic.Uint64
}

// NewRecorder creates a recorder writing to store under session.
func NewRecorder(store *Store, session string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:   store,
		session: session,
		logger:  logger.With("component", "journal"),
		events:  make(chan Event, 512),
	}
}

// Record queues an event. It never blocks; events are dropped when the
// buffer is full.
func (r *Recorder) Record(kind Kind, detail string) {
	ev := Event{SessionID: r.session, At: time.Now(), Kind: kind, Detail: detail}
	select {
	case r.events <- ev:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.logger.Warn("journal buffer full, dropping event", "dropped", n)
		}
	}
}

// Run writes queued events until ctx is cancelled, then flushes what is
// left.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var batch []Event
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.store.Insert(ctx, batch...); err != nil {
			r.logger.Warn("journal write failed", "error", err, "events", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-r.events:
					batch = append(batch, ev)
				default:
					flush(context.Background())
					return nil
				}
			}
		case ev := <-r.events:
			batch = append(batch, ev)
			if len(batch) >= 64 {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
