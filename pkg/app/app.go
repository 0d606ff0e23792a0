// Package app assembles a facenav process from its configuration: pointer
// device, session, frame source, control surface and journal.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-facenav/internal/config"
	"github.com/teslashibe/go-facenav/pkg/action"
	"github.com/teslashibe/go-facenav/pkg/camera"
	"github.com/teslashibe/go-facenav/pkg/journal"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/pause"
	"github.com/teslashibe/go-facenav/pkg/pointer"
	"github.com/teslashibe/go-facenav/pkg/session"
	"github.com/teslashibe/go-facenav/pkg/web"
)

// Option customizes an App.
type Option func(*App)

// WithDevice uses dev instead of opening the configured pointer backend.
func WithDevice(dev pointer.Device) Option {
	return func(a *App) { a.device = dev }
}

// App is a running facenav instance.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	device  pointer.Device
	pause   *pause.Controller
	session *session.Session

	// Frame source (camera mode only)
	sidecar   *landmarker.Sidecar
	cameraMgr *camera.Manager
	source    *camera.Source

	webServer *web.Server

	store    *journal.Store
	recorder *journal.Recorder
}

// New creates an App. The configuration is validated here.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		pause:  pause.New(false),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init opens the pointer, journal and frame source and builds the control
// surface. Call this after New and before Run. Any error is fatal.
func (a *App) Init(ctx context.Context) error {
	gcfg, err := a.cfg.GestureConfig()
	if err != nil {
		return err
	}
	acfg, err := a.cfg.ActuatorConfig()
	if err != nil {
		return err
	}

	if a.device == nil {
		dev, err := pointer.New(pointer.Backend(a.cfg.Pointer), a.logger)
		if err != nil {
			return fmt.Errorf("pointer: %w", err)
		}
		a.device = dev
	}

	a.session = session.New(gcfg, acfg, a.device, a.pause, a.logger)
	a.logger.Info("session created", "id", a.session.ID(), "source", a.cfg.Source)

	if err := a.initJournal(ctx); err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	if a.cfg.Source == config.SourceCamera {
		if err := a.initCamera(ctx); err != nil {
			return fmt.Errorf("camera source: %w", err)
		}
	}

	if err := a.initWeb(); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

func (a *App) initJournal(ctx context.Context) error {
	store, err := journal.Open(ctx, a.cfg.JournalPath())
	if errors.Is(err, journal.ErrDisabled) {
		a.logger.Info("journal disabled")
		return nil
	}
	if err != nil {
		return err
	}
	a.store = store
	a.recorder = journal.NewRecorder(store, a.session.ID(), a.logger)
	a.session.Observe(a.journalObserver)
	a.logger.Info("journal opened", "path", store.Path())
	return nil
}

// journalObserver records everything except cursor motion, which is
// counted in the actuator stats instead.
func (a *App) journalObserver(ev session.Event) {
	switch ev.Kind {
	case session.EventStart:
		a.recorder.Record(journal.KindSessionStart, a.cfg.Source)
	case session.EventEnd:
		a.recorder.Record(journal.KindSessionEnd, "")
	case session.EventAction:
		if ev.Action.Kind == action.Click {
			a.recorder.Record(journal.KindAction, ev.Detail())
		}
	case session.EventPause:
		a.recorder.Record(journal.KindPause, ev.Detail())
	case session.EventResume:
		a.recorder.Record(journal.KindResume, ev.Detail())
	case session.EventFailure:
		a.recorder.Record(journal.KindFailure, ev.Detail())
	}
}

func (a *App) initCamera(ctx context.Context) error {
	lcfg, err := a.cfg.LandmarkerConfig()
	if err != nil {
		return err
	}
	ccfg, err := a.cfg.CameraConfig()
	if err != nil {
		return err
	}

	a.sidecar = landmarker.NewSidecar(lcfg, a.session.HandleResult, a.logger)
	if err := a.sidecar.Connect(ctx); err != nil {
		return fmt.Errorf("connect landmarker at %s: %w", lcfg.URL, err)
	}
	a.cameraMgr = camera.NewManager(ccfg)
	a.source = camera.NewSource(a.cameraMgr, a.sidecar, a.logger)
	return nil
}

func (a *App) initWeb() error {
	wcfg, err := a.cfg.WebConfig()
	if err != nil {
		return err
	}
	if wcfg.Addr == "" {
		return nil
	}

	deps := web.Deps{
		Status:      a.session,
		Pause:       a.pause,
		Sensitivity: a.session.Actuator(),
		Config:      a.cfg,
	}
	if a.store != nil {
		deps.Events = a.store
	}
	if a.cameraMgr != nil {
		deps.Camera = a.cameraMgr
	}
	if a.cfg.Source == config.SourcePush {
		deps.OnResult = a.session.HandleResult
	}

	a.webServer = web.NewServer(wcfg, deps, a.logger)
	a.session.Observe(a.webServer.Publish)
	return nil
}

// Pause returns the shared pause controller, for the tray.
func (a *App) Pause() *pause.Controller {
	return a.pause
}

// Session returns the session built by Init.
func (a *App) Session() *session.Session {
	return a.session
}

// Run runs every component until ctx is cancelled or one of them fails.
// The journal is flushed after the session has ended.
func (a *App) Run(ctx context.Context) error {
	if a.session == nil {
		return errors.New("app: Run called before Init")
	}

	recDone := make(chan error, 1)
	recCtx, recCancel := context.WithCancel(context.WithoutCancel(ctx))
	if a.recorder != nil {
		go func() { recDone <- a.recorder.Run(recCtx) }()
	} else {
		recDone <- nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.session.Run(gctx) })
	if a.source != nil {
		g.Go(func() error { return a.source.Run(gctx) })
	}
	if a.webServer != nil {
		g.Go(func() error { return a.webServer.Run(gctx) })
	}
	err := g.Wait()

	recCancel()
	if rerr := <-recDone; rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// Shutdown releases resources opened by Init.
func (a *App) Shutdown() {
	if a.sidecar != nil {
		a.sidecar.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("journal close", "error", err)
		}
	}
	if a.device != nil {
		a.device.Close()
	}
}
