package web

import (
	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facenav/pkg/hub"
	"github.com/teslashibe/go-facenav/pkg/journal"
	"github.com/teslashibe/go-facenav/pkg/landmarker"
	"github.com/teslashibe/go-facenav/pkg/pause"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

// PauseRequest is the body of PUT /api/pause.
type PauseRequest struct {
	Paused *bool `json:"paused"`
}

// SensitivityRequest is the body of PUT /api/sensitivity.
type SensitivityRequest struct {
	Sensitivity *float64 `json:"sensitivity"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// requestSource attributes a pause change. The facenav CLI identifies
// itself with ?source=cli; everything else counts as the web surface.
func requestSource(c *fiber.Ctx) pause.Source {
	if c.Query("source") == string(pause.SourceCLI) {
		return pause.SourceCLI
	}
	return pause.SourceWeb
}

// handleStatus returns the session snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.deps.Status.Status())
}

func (s *Server) handleGetPause(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"paused": s.deps.Pause.Paused()})
}

func (s *Server) handleSetPause(c *fiber.Ctx) error {
	var req PauseRequest
	if err := c.BodyParser(&req); err != nil || req.Paused == nil {
		return errorJSON(c, fiber.StatusBadRequest, `body must be {"paused": true|false}`)
	}
	s.deps.Pause.SetPaused(*req.Paused, requestSource(c))
	return c.JSON(fiber.Map{"paused": s.deps.Pause.Paused()})
}

func (s *Server) handleTogglePause(c *fiber.Ctx) error {
	paused := s.deps.Pause.Toggle(requestSource(c))
	return c.JSON(fiber.Map{"paused": paused})
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.deps.Config == nil {
		return errorJSON(c, fiber.StatusNotFound, "config not available")
	}
	return c.JSON(s.deps.Config)
}

// handleEvents returns recent journal events, newest first.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	if s.deps.Events == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "journal disabled")
	}
	limit := c.QueryInt("limit", defaultEventLimit)
	if limit <= 0 || limit > maxEventLimit {
		return errorJSON(c, fiber.StatusBadRequest, "limit must be between 1 and 1000")
	}
	events, err := s.deps.Events.Recent(c.UserContext(), limit)
	if err != nil {
		s.logger.Warn("list events failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if events == nil {
		events = []journal.Event{}
	}
	return c.JSON(events)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return errorJSON(c, fiber.StatusNotFound, "camera not in use")
	}
	return c.JSON(s.deps.Camera.GetConfig())
}

// handleUpdateCamera applies a partial update, e.g. {"preset":"low"} or
// {"framerate":20}.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return errorJSON(c, fiber.StatusNotFound, "camera not in use")
	}
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if err := s.deps.Camera.UpdateConfig(params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.deps.Camera.GetConfig())
}

func (s *Server) handleGetSensitivity(c *fiber.Ctx) error {
	if s.deps.Sensitivity == nil {
		return errorJSON(c, fiber.StatusNotFound, "sensitivity not adjustable")
	}
	return c.JSON(fiber.Map{"sensitivity": s.deps.Sensitivity.Sensitivity()})
}

func (s *Server) handleSetSensitivity(c *fiber.Ctx) error {
	if s.deps.Sensitivity == nil {
		return errorJSON(c, fiber.StatusNotFound, "sensitivity not adjustable")
	}
	var req SensitivityRequest
	if err := c.BodyParser(&req); err != nil || req.Sensitivity == nil {
		return errorJSON(c, fiber.StatusBadRequest, `body must be {"sensitivity": number}`)
	}
	s.deps.Sensitivity.SetSensitivity(*req.Sensitivity)
	return c.JSON(fiber.Map{"sensitivity": s.deps.Sensitivity.Sensitivity()})
}

// handleStatusWS sends the current status, then streams session events.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var greeting []hub.Message
	if msg, err := hub.Encode(hub.NewEvent(hub.EventStatus, s.deps.Status.Status())); err == nil {
		greeting = append(greeting, msg)
	}
	hub.NewClient(s.statusHub, c, greeting...).Run()
}

// handleScoresWS accepts landmarker results pushed by an external process.
// Each text message is one result; malformed messages are logged and
// skipped.
func (s *Server) handleScoresWS(c *contribws.Conn) {
	s.logger.Info("score producer connected", "remote", c.RemoteAddr().String())
	defer s.logger.Info("score producer disconnected")

	bad := 0
	for {
		kind, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if kind != contribws.TextMessage {
			continue
		}
		r, err := landmarker.DecodeResult(data)
		if err != nil {
			bad++
			if bad == 1 || bad%50 == 0 {
				s.logger.Warn("bad score message", "error", err, "bad", bad)
			}
			continue
		}
		s.deps.OnResult(r)
	}
}
