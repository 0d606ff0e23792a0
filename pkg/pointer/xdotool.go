package pointer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-facenav/pkg/action"
)

const (
	xdotoolTimeout   = 500 * time.Millisecond
	boundsRefreshTTL = 5 * time.Second
)

// runner executes one xdotool invocation and returns its stdout.
type runner func(ctx context.Context, args ...string) ([]byte, error)

// Xdotool drives the X11 pointer through the xdotool binary.
type Xdotool struct {
	run    runner
	logger *slog.Logger

	mu        sync.Mutex
	width     int
	height    int
	boundsAge time.Time
}

func newXdotool(logger *slog.Logger) (*Xdotool, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("%w: DISPLAY is not set", ErrUnavailable)
	}
	path, err := exec.LookPath("xdotool")
	if err != nil {
		return nil, fmt.Errorf("%w: xdotool not found in PATH", ErrUnavailable)
	}

	x := newXdotoolWithRunner(execRunner(path), logger)
	if _, _, err := x.ScreenBounds(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return x, nil
}

func newXdotoolWithRunner(run runner, logger *slog.Logger) *Xdotool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Xdotool{run: run, logger: logger.With("backend", "xdotool")}
}

func execRunner(path string) runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, path, args...)
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("xdotool %s: %w (%s)", args[0], err, strings.TrimSpace(stderr.String()))
		}
		return out, nil
	}
}

func (x *Xdotool) exec(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), xdotoolTimeout)
	defer cancel()
	return x.run(ctx, args...)
}

func (x *Xdotool) Position() (int, int, error) {
	out, err := x.exec("getmouselocation", "--shell")
	if err != nil {
		return 0, 0, err
	}
	return parseMouseLocation(out)
}

func (x *Xdotool) MoveTo(px, py int) error {
	_, err := x.exec("mousemove", strconv.Itoa(px), strconv.Itoa(py))
	return err
}

func (x *Xdotool) Press(b action.Button, px, py int) error {
	if err := x.MoveTo(px, py); err != nil {
		return err
	}
	_, err := x.exec("mousedown", xButton(b))
	return err
}

func (x *Xdotool) Release(b action.Button, px, py int) error {
	_, err := x.exec("mouseup", xButton(b))
	return err
}

// ScreenBounds returns the display geometry, cached for a few seconds.
func (x *Xdotool) ScreenBounds() (int, int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.width > 0 && time.Since(x.boundsAge) < boundsRefreshTTL {
		return x.width, x.height, nil
	}
	out, err := x.exec("getdisplaygeometry")
	if err != nil {
		return 0, 0, err
	}
	w, h, err := parseGeometry(out)
	if err != nil {
		return 0, 0, err
	}
	if w != x.width || h != x.height {
		x.logger.Info("display geometry", "width", w, "height", h)
	}
	x.width, x.height, x.boundsAge = w, h, time.Now()
	return w, h, nil
}

func (x *Xdotool) Close() error {
	return nil
}

// xButton maps a button to the X11 button number.
func xButton(b action.Button) string {
	if b == action.Right {
		return "3"
	}
	return "1"
}

// parseMouseLocation parses `xdotool getmouselocation --shell` output.
func parseMouseLocation(out []byte) (int, int, error) {
	var x, y int
	var gotX, gotY bool
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		switch key {
		case "X":
			x, gotX = n, true
		case "Y":
			y, gotY = n, true
		}
	}
	if !gotX || !gotY {
		return 0, 0, fmt.Errorf("unexpected getmouselocation output: %q", out)
	}
	return x, y, nil
}

// parseGeometry parses `xdotool getdisplaygeometry` output ("1920 1080").
func parseGeometry(out []byte) (int, int, error) {
	fields := strings.Fields(string(out))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected getdisplaygeometry output: %q", out)
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse width: %w", err)
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse height: %w", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid display geometry %dx%d", w, h)
	}
	return w, h, nil
}
