package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facenav/pkg/landmarker"
)

// grabber produces encoded frames from one opened device.
type grabber interface {
	Grab() ([]byte, error)
	Close() error
}

// opener opens a grabber for a configuration.
type opener func(cfg Config) (grabber, error)

// ErrNoFrame is returned when the device delivered an empty frame.
var ErrNoFrame = errors.New("camera: empty frame")

// cvGrabber reads from an OpenCV VideoCapture.
type cvGrabber struct {
	capture *gocv.VideoCapture
	img     gocv.Mat
	flipped gocv.Mat
	mirror  bool
	params  []int
}

func openCV(cfg Config) (grabber, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open camera %d: device not available", cfg.Device)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	return &cvGrabber{
		capture: capture,
		img:     gocv.NewMat(),
		flipped: gocv.NewMat(),
		mirror:  cfg.Mirror,
		params:  []int{int(gocv.IMWriteJpegQuality), cfg.Quality},
	}, nil
}

func (g *cvGrabber) Grab() ([]byte, error) {
	if ok := g.capture.Read(&g.img); !ok || g.img.Empty() {
		return nil, ErrNoFrame
	}

	src := g.img
	if g.mirror {
		gocv.Flip(g.img, &g.flipped, 1)
		src = g.flipped
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, g.params)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory freed by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func (g *cvGrabber) Close() error {
	g.img.Close()
	g.flipped.Close()
	return g.capture.Close()
}

// Stats is a snapshot of capture counters.
type Stats struct {
	Submitted uint64 `json:"submitted"`
	Skipped   uint64 `json:"skipped"`
	Failures  uint64 `json:"failures"`
}

// Source grabs frames at the configured cadence and hands them to a
// landmarker. Runtime changes made through the Manager take effect on the
// next tick; a device or size change reopens the capture.
type Source struct {
	mgr    *Manager
	lm     landmarker.Landmarker
	logger *slog.Logger
	open   opener

	changed chan struct{}

	submitted atomic.Uint64
	skipped   atomic.Uint64
	failures  atomic.Uint64
}

// NewSource creates a capture source fed by mgr's configuration.
func NewSource(mgr *Manager, lm landmarker.Landmarker, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{
		mgr:     mgr,
		lm:      lm,
		logger:  logger.With("component", "camera"),
		open:    openCV,
		changed: make(chan struct{}, 1),
	}
	mgr.OnConfigChange = func(Config) error {
		select {
		case s.changed <- struct{}{}:
		default:
		}
		return nil
	}
	return s
}

// Run captures until ctx is cancelled. Failing to open the device is fatal;
// per-frame failures are counted and logged sparsely.
func (s *Source) Run(ctx context.Context) error {
	cfg := s.mgr.GetConfig()
	g, err := s.open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if g != nil {
			g.Close()
		}
	}()

	s.logger.Info("camera started",
		"device", cfg.Device,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps", cfg.Framerate,
		"mirror", cfg.Mirror)

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("camera stopped", "submitted", s.submitted.Load())
			return nil

		case <-s.changed:
			next := s.mgr.GetConfig()
			if !next.sameDevice(cfg) || next.Mirror != cfg.Mirror || next.Quality != cfg.Quality {
				g.Close()
				if g, err = s.open(next); err != nil {
					return err
				}
			}
			if next.Framerate != cfg.Framerate {
				ticker.Reset(next.Interval())
			}
			s.logger.Info("camera reconfigured", "device", next.Device, "fps", next.Framerate)
			cfg = next

		case <-ticker.C:
			s.step(g)
		}
	}
}

func (s *Source) step(g grabber) {
	jpeg, err := g.Grab()
	if err != nil {
		s.fail("grab failed", err)
		return
	}
	if err := s.lm.DetectAsync(jpeg, time.Now()); err != nil {
		if errors.Is(err, landmarker.ErrNotConnected) {
			s.skipped.Add(1)
			return
		}
		s.fail("submit failed", err)
		return
	}
	s.submitted.Add(1)
}

func (s *Source) fail(msg string, err error) {
	n := s.failures.Add(1)
	if n == 1 || n%50 == 0 {
		s.logger.Warn(msg, "error", err, "failures", n)
	}
}

// Stats returns a snapshot of the counters.
func (s *Source) Stats() Stats {
	return Stats{
		Submitted: s.submitted.Load(),
		Skipped:   s.skipped.Load(),
		Failures:  s.failures.Load(),
	}
}
