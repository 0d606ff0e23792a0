// Package tray puts FaceNav in the menu bar with a Pause/Resume toggle and
// a Quit item.
package tray

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"

	"github.com/getlantern/systray"

	"github.com/teslashibe/go-facenav/pkg/pause"
)

// Title is shown next to the icon.
const Title = "FaceNav"

// Run shows the tray menu and blocks until Quit is clicked or ctx is
// cancelled. On macOS it must be called from the main goroutine. onQuit is
// called when the user picks Quit.
func Run(ctx context.Context, p *pause.Controller, onQuit func(), logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tray")

	onReady := func() {
		systray.SetIcon(icon())
		systray.SetTitle(Title)
		systray.SetTooltip("FaceNav - facial gesture pointer control")

		mPause := systray.AddMenuItem(pauseLabel(p.Paused()), "Pause or resume gesture control")
		systray.AddSeparator()
		mQuit := systray.AddMenuItem("Quit", "Quit FaceNav")

		// Keep the label in sync with changes made by gestures or the web API.
		p.OnChange(func(paused bool, _ pause.Source) {
			mPause.SetTitle(pauseLabel(paused))
		})

		go func() {
			for {
				select {
				case <-mPause.ClickedCh:
					paused := p.Toggle(pause.SourceTray)
					logger.Info("toggled from tray", "paused", paused)
				case <-mQuit.ClickedCh:
					logger.Info("quit from tray")
					if onQuit != nil {
						onQuit()
					}
					systray.Quit()
					return
				case <-ctx.Done():
					systray.Quit()
					return
				}
			}
		}()
		logger.Info("tray ready")
	}

	systray.Run(onReady, func() {})
}

// pauseLabel is the toggle item title for the current state.
func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

// icon draws a 22x22 face outline (standard menu bar size).
func icon() []byte {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	ink := color.RGBA{40, 40, 40, 255}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if faceStroke(x, y, size) {
				img.Set(x, y, ink)
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// faceStroke reports whether (x, y) is on the outline, an eye or the mouth.
func faceStroke(x, y, size int) bool {
	c := float64(size-1) / 2
	dx, dy := float64(x)-c, float64(y)-c
	d2 := dx*dx + dy*dy
	r := c - 0.5

	switch {
	case d2 <= r*r && d2 >= (r-1.6)*(r-1.6):
		return true
	case (x == 7 || x == 14) && (y == 8 || y == 9):
		return true
	case y == 14 && x >= 7 && x <= 14:
		return true
	}
	return false
}
