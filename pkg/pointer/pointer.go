// Package pointer provides the minimal OS pointer capability the actuator
// needs: read the cursor position, post moves and button events, and query
// the active display bounds.
//
// Backends:
//   - xdotool (Linux/X11) - shells out to xdotool
//   - quartz (macOS) - CoreGraphics event injection
//   - virtual - in-memory pointer for tests, replay and dry runs
package pointer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/teslashibe/go-facenav/pkg/action"
)

// Backend names a pointer implementation.
type Backend string

const (
	BackendAuto    Backend = "auto"
	BackendXdotool Backend = "xdotool"
	BackendQuartz  Backend = "quartz"
	BackendVirtual Backend = "virtual"
)

var (
	// ErrUnavailable is returned when the backend cannot reach a display or
	// pointer subsystem.
	ErrUnavailable = errors.New("pointer: no display or pointer subsystem available")

	// ErrUnsupportedBackend is returned for backends not built for this platform.
	ErrUnsupportedBackend = errors.New("pointer: backend not supported on this platform")
)

// Device is the platform input-injection capability.
type Device interface {
	// Position returns the current cursor position in screen pixels.
	Position() (x, y int, err error)
	// MoveTo posts a pointer move to an absolute position.
	MoveTo(x, y int) error
	// Press posts a button-down event at (x, y).
	Press(b action.Button, x, y int) error
	// Release posts a button-up event at (x, y).
	Release(b action.Button, x, y int) error
	// ScreenBounds returns the active display size in pixels.
	ScreenBounds() (width, height int, err error)
	// Close releases backend resources.
	Close() error
}

// New opens a pointer device for the given backend. BackendAuto picks the
// best backend for the current platform.
func New(backend Backend, logger *slog.Logger) (Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if backend == "" || backend == BackendAuto {
		backend = detectBestBackend()
	}

	logger.Info("opening pointer device", "backend", backend)

	switch backend {
	case BackendVirtual:
		return NewVirtual(1920, 1080), nil
	case BackendXdotool:
		return newXdotool(logger)
	case BackendQuartz:
		return newQuartz()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
}

func detectBestBackend() Backend {
	switch runtime.GOOS {
	case "darwin":
		return BackendQuartz
	case "linux", "freebsd", "openbsd":
		return BackendXdotool
	default:
		return BackendVirtual
	}
}

// Clamp limits (x, y) to [0, width) x [0, height).
func Clamp(x, y, width, height int) (int, int) {
	return clampInt(x, 0, width-1), clampInt(y, 0, height-1)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
