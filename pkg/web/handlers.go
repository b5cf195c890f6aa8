package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-hazardcam/pkg/hub"
	"github.com/teslashibe/go-hazardcam/pkg/tracking"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	body := fiber.Map{"viewers": s.Viewers()}
	if s.StatusFunc != nil {
		body["app"] = s.StatusFunc()
	}
	return c.JSON(body)
}

// handleTracks returns the live tracks of the latest frame.
func (s *Server) handleTracks(c *fiber.Ctx) error {
	res, ok := s.Latest()
	if !ok || res.Tracks == nil {
		return c.JSON([]tracking.TrackedObject{})
	}
	return c.JSON(res.Tracks)
}

func (s *Server) handleAlerts(c *fiber.Ctx) error {
	return c.JSON(s.Alerts())
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	res, ok := s.Latest()
	if !ok {
		return c.Status(fiber.StatusNoContent).Send(nil)
	}
	return c.JSON(res)
}

// feedHandler serves a single feed.
func (s *Server) feedHandler(kinds hub.Kind) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		s.serveFeed(c, kinds)
	})
}

// handleFeed serves the feeds named in the "feeds" query parameter,
// every feed when it is absent.
func (s *Server) handleFeed(c *fiber.Ctx) error {
	kinds, err := hub.ParseKinds(c.Query("feeds"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return s.feedHandler(kinds)(c)
}

// serveFeed replays current state for the subscribed kinds: the latest
// frame for overlay viewers and recent alerts for alert viewers. It then
// streams live messages until the viewer leaves.
func (s *Server) serveFeed(c *websocket.Conn, kinds hub.Kind) {
	if kinds&hub.KindOverlay != 0 {
		if res, ok := s.Latest(); ok {
			if err := c.WriteJSON(res); err != nil {
				return
			}
		}
	}
	if kinds&hub.KindAlert != 0 {
		for _, a := range s.Alerts() {
			if err := c.WriteJSON(a); err != nil {
				return
			}
		}
	}
	hub.NewClient(s.feed, c, kinds).Run()
}
