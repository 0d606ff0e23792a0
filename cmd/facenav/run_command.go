package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facenav/internal/config"
	"github.com/teslashibe/go-facenav/internal/log"
	"github.com/teslashibe/go-facenav/pkg/app"
	"github.com/teslashibe/go-facenav/pkg/tray"
)

// ErrAlreadyRunning is returned when another facenav holds the lock.
var ErrAlreadyRunning = errors.New("another facenav instance is already running")

type runFlags struct {
	pointer     string
	source      string
	camera      int
	sidecar     string
	web         string
	noWeb       bool
	journal     string
	tray        bool
	preset      string
	sensitivity float64
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start gesture pointer control",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg, f); err != nil {
				return err
			}
			return runApp(cmd.Context(), *cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.pointer, "pointer", "", "Pointer backend: auto, xdotool, quartz, virtual")
	flags.StringVar(&f.source, "source", "", "Frame source: camera or push")
	flags.IntVar(&f.camera, "camera", 0, "Camera device index")
	flags.StringVar(&f.sidecar, "sidecar", "", "Landmarker sidecar websocket URL")
	flags.StringVar(&f.web, "web", "", "Control surface listen address, e.g. 127.0.0.1:8077")
	flags.BoolVar(&f.noWeb, "no-web", false, "Disable the control surface")
	flags.StringVar(&f.journal, "journal", "", "Record events to this SQLite file")
	flags.BoolVar(&f.tray, "tray", false, "Show the menu bar icon")
	flags.StringVar(&f.preset, "preset", "", "Gesture preset: default, sensitive, relaxed")
	flags.Float64Var(&f.sensitivity, "sensitivity", 0, "Cursor sensitivity multiplier")
	return cmd
}

// applyRunFlags overlays explicitly set flags on cfg and revalidates.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, f runFlags) error {
	changed := cmd.Flags().Changed

	if changed("pointer") {
		cfg.Pointer = f.pointer
	}
	if changed("source") {
		cfg.Source = f.source
	}
	if changed("camera") {
		cfg.Camera.Device = f.camera
	}
	if changed("sidecar") {
		cfg.Landmarker.URL = f.sidecar
	}
	if changed("web") {
		cfg.Web.Enabled = true
		cfg.Web.Addr = f.web
	}
	if f.noWeb {
		cfg.Web.Enabled = false
	}
	if changed("journal") {
		path, err := config.ExpandPath(f.journal)
		if err != nil {
			return err
		}
		cfg.Journal.Enabled = true
		cfg.Journal.Path = path
	}
	if changed("tray") {
		cfg.Tray = f.tray
	}
	if changed("preset") {
		if err := cfg.ApplyPreset(f.preset); err != nil {
			return err
		}
	}
	if changed("sensitivity") {
		cfg.Motion.Sensitivity = f.sensitivity
	}
	return cfg.Validate()
}

// acquireLock takes the single-instance lock on path.
func acquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

func runApp(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := log.L()

	lock, err := acquireLock(cfg.LockPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		a.Shutdown()
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer a.Shutdown()

	if !cfg.Tray {
		return a.Run(ctx)
	}

	// The tray owns the main goroutine; the app runs beside it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		cancel()
	}()
	tray.Run(ctx, a.Pause(), cancel, logger)
	cancel()
	return <-errCh
}
