// Package web is the local HTTP control surface: status, pause control,
// recent journal events, and two websockets, one streaming session events
// out and one accepting expression scores in.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facenav/pkg/camera"
	"github.com/teslashibe/go-facenav/pkg/hub"
	"github.com/teslashibe/go-facenav/pkg/journal"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/pause"
	"github.com/teslashibe/go-facenav/pkg/session"
)

// Config configures the control surface.
type Config struct {
	// Addr is the listen address. Empty disables the server.
	Addr string
}

// DefaultConfig listens on loopback only; the API can pause and steer the
// pointer.
func DefaultConfig() Config {
	return Config{Addr: "127.0.0.1:8077"}
}

// Validate checks the listen address.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid web addr %q: %w", c.Addr, err)
	}
	return nil
}

// StatusProvider reports the running session.
type StatusProvider interface {
	Status() session.Status
}

// EventStore lists journal events.
type EventStore interface {
	Recent(ctx context.Context, limit int) ([]journal.Event, error)
}

// Sensitivity is runtime cursor sensitivity control.
type Sensitivity interface {
	Sensitivity() float64
	SetSensitivity(v float64)
}

// Deps are the components the server exposes. Nil optional fields disable
// their routes.
type Deps struct {
	Status StatusProvider
	Pause  *pause.Controller

	// Optional.
	Events      EventStore
	Camera      *camera.Manager
	Sensitivity Sensitivity
	Config      any
	OnResult    landmarker.ResultHandler
}

// Server is the control surface server.
type Server struct {
	cfg    Config
	deps   Deps
	app    *fiber.App
	logger *slog.Logger

	// Hub for /ws/status
	statusHub *hub.Hub
}

// NewServer creates the server and registers its routes.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")
	s := &Server{
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		statusHub: hub.New("status", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "FaceNav",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/pause", s.handleGetPause)
	api.Put("/pause", s.handleSetPause)
	api.Post("/pause/toggle", s.handleTogglePause)
	api.Get("/config", s.handleConfig)
	api.Get("/events", s.handleEvents)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/sensitivity", s.handleGetSensitivity)
	api.Put("/sensitivity", s.handleSetSensitivity)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	if deps.OnResult != nil {
		app.Get("/ws/scores", contribws.New(s.handleScoresWS))
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	s.logger.Info("control surface listening", "url", "http://"+ln.Addr().String())

	go s.statusHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()

	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Warn("web shutdown", "error", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	}
}

// Publish broadcasts a session event to /ws/status subscribers.
func (s *Server) Publish(ev session.Event) {
	var typ string
	switch ev.Kind {
	case session.EventAction:
		typ = hub.EventAction
	case session.EventPause, session.EventResume:
		typ = hub.EventPause
	case session.EventFailure:
		typ = hub.EventFailure
	default:
		typ = hub.EventStatus
	}
	s.statusHub.Publish(hub.Event{
		Type: typ,
		At:   ev.At,
		Data: fiber.Map{"kind": ev.Kind, "detail": ev.Detail()},
	})
}
