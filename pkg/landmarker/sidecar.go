package landmarker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// SidecarStats is a snapshot of sidecar counters.
type SidecarStats struct {
	Connected bool   `json:"connected"`
	Sent      uint64 `json:"sent"`
	Replaced  uint64 `json:"replaced"`
	Results   uint64 `json:"results"`
	Misses    uint64 `json:"misses"`
}

// Sidecar talks to an out-of-process landmarker over a websocket. Frames are
// written by a single writer goroutine from a one-frame buffer; results are
// read on a reader goroutine and handed to the ResultHandler.
type Sidecar struct {
	cfg      Config
	logger   *slog.Logger
	onResult ResultHandler

	mu      sync.Mutex
	pending []byte
	wake    chan struct{}

	connected atomic.Bool
	closed    atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}

	sent     atomic.Uint64
	replaced atomic.Uint64
	results  atomic.Uint64
	misses   atomic.Uint64
}

// NewSidecar creates a sidecar client. Call Connect to start it.
func NewSidecar(cfg Config, onResult ResultHandler, logger *slog.Logger) *Sidecar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sidecar{
		cfg:      cfg,
		logger:   logger.With("component", "landmarker.sidecar"),
		onResult: onResult,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Connect dials the sidecar and starts the connection loop. The first dial
// must succeed; later disconnects are retried with backoff until Close.
func (s *Sidecar) Connect(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx, conn)
	return nil
}

func (s *Sidecar) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("sidecar dial %s failed (status %d): %w", s.cfg.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("sidecar dial %s failed: %w", s.cfg.URL, err)
	}
	s.logger.Info("sidecar connected", "url", s.cfg.URL)
	return conn, nil
}

// loop serves one connection at a time and reconnects until ctx is done.
func (s *Sidecar) loop(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)

	delay := s.cfg.ReconnectDelay
	for {
		err := s.serve(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("sidecar disconnected", "error", err, "retry_in", delay)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			conn, err = s.dial(ctx)
			if err == nil {
				delay = s.cfg.ReconnectDelay
				break
			}
			delay = min(delay*2, s.cfg.ReconnectMaxDelay)
			s.logger.Debug("sidecar reconnect failed", "error", err, "retry_in", delay)
		}
	}
}

// serve runs the writer and reader for conn until either fails.
func (s *Sidecar) serve(ctx context.Context, conn *websocket.Conn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.connected.Store(true)
	defer s.connected.Store(false)

	go func() {
		<-connCtx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()
	go s.writeLoop(connCtx, cancel, conn)

	return s.readLoop(conn)
}

func (s *Sidecar) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			frame := s.takePending()
			if frame == nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.logger.Debug("sidecar write failed", "error", err)
				cancel()
				return
			}
			s.sent.Add(1)
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				cancel()
				return
			}
		}
	}
}

func (s *Sidecar) readLoop(conn *websocket.Conn) error {
	wait := 2 * s.cfg.PingInterval
	conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(wait))
		if kind != websocket.TextMessage {
			continue
		}

		r, err := DecodeResult(data)
		if err != nil {
			s.logger.Warn("sidecar sent bad result", "error", err)
			continue
		}
		s.results.Add(1)
		if len(r.Faces) == 0 {
			s.misses.Add(1)
		}
		if s.onResult != nil {
			s.onResult(r)
		}
	}
}

// DetectAsync implements Landmarker.
func (s *Sidecar) DetectAsync(jpeg []byte, at time.Time) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.connected.Load() {
		return ErrNotConnected
	}

	frame := EncodeFrame(at, jpeg)
	s.mu.Lock()
	if s.pending != nil {
		s.replaced.Add(1)
	}
	s.pending = frame
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Sidecar) takePending() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.pending
	s.pending = nil
	return f
}

// Connected reports whether a connection is currently up.
func (s *Sidecar) Connected() bool {
	return s.connected.Load()
}

// Stats returns a snapshot of the counters.
func (s *Sidecar) Stats() SidecarStats {
	return SidecarStats{
		Connected: s.connected.Load(),
		Sent:      s.sent.Load(),
		Replaced:  s.replaced.Load(),
		Results:   s.results.Load(),
		Misses:    s.misses.Load(),
	}
}

// Close stops the connection loop and waits for it to exit.
func (s *Sidecar) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.logger.Info("sidecar closed", "sent", s.sent.Load(), "results", s.results.Load())
	return nil
}
