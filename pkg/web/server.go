// Package web serves the live hazard overlay: per-frame annotations and
// spoken alerts over websockets, plus a small JSON status API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-hazardcam/pkg/hub"
	"github.com/teslashibe/go-hazardcam/pkg/pipeline"
)

// AlertEvent is one utterance handed to the speech queue.
type AlertEvent struct {
	ID    string    `json:"id"`
	Time  time.Time `json:"time"`
	Frame int       `json:"frame"`
	Text  string    `json:"text"`
}

// Config holds server settings.
type Config struct {
	Port string

	// StaticDir is served at / when set.
	StaticDir string

	// MaxAlerts bounds the alert history kept for /api/alerts.
	MaxAlerts int

	// StreamFrames forwards JPEG frames on /ws/camera.
	StreamFrames bool

	Logger *slog.Logger
}

// DefaultConfig returns defaults for a local viewer.
func DefaultConfig() Config {
	return Config{
		Port:         "8090",
		MaxAlerts:    100,
		StreamFrames: true,
		Logger:       slog.Default(),
	}
}

// Server is the overlay feed. It implements pipeline.Sink.
type Server struct {
	app    *fiber.App
	config Config
	logger *slog.Logger

	feed *hub.Hub

	mu     sync.RWMutex
	latest *pipeline.FrameResult
	alerts []AlertEvent

	// StatusFunc supplies the /api/status body. Must be safe for
	// concurrent use.
	StatusFunc func() any
}

// NewServer creates the server and registers routes.
func NewServer(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxAlerts <= 0 {
		config.MaxAlerts = 100
	}

	s := &Server{
		config: config,
		logger: config.Logger.With("component", "web"),
		feed:   hub.New(config.Logger),
		alerts: make([]AlertEvent, 0, config.MaxAlerts),
	}

	app := fiber.New(fiber.Config{
		AppName:               "hazardcam",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	if config.StaticDir != "" {
		app.Static("/", config.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/tracks", s.handleTracks)
	api.Get("/alerts", s.handleAlerts)
	api.Get("/frame", s.handleFrame)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/overlay", s.feedHandler(hub.KindOverlay))
	app.Get("/ws/alerts", s.feedHandler(hub.KindAlert))
	app.Get("/ws/camera", s.feedHandler(hub.KindFrame))
	app.Get("/ws/feed", s.handleFeed)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hub and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.feed.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("overlay feed listening", "url", "http://localhost:"+s.config.Port)
		errc <- s.app.Listen(":" + s.config.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// OnFrame records and broadcasts a processed frame. It never blocks on
// viewers.
func (s *Server) OnFrame(res pipeline.FrameResult) {
	image := res.Image
	res.Image = nil

	var event *AlertEvent
	if res.Queued && res.Utterance != "" {
		event = &AlertEvent{
			ID:    uuid.NewString(),
			Time:  res.Time,
			Frame: res.Index,
			Text:  res.Utterance,
		}
	}

	s.mu.Lock()
	s.latest = &res
	if event != nil {
		if len(s.alerts) == s.config.MaxAlerts {
			copy(s.alerts, s.alerts[1:])
			s.alerts = s.alerts[:len(s.alerts)-1]
		}
		s.alerts = append(s.alerts, *event)
	}
	s.mu.Unlock()

	if msg, err := hub.NewOverlay(res); err != nil {
		s.logger.Warn("encode overlay", "error", err)
	} else {
		s.feed.Broadcast(msg)
	}
	if event != nil {
		if msg, err := hub.NewAlert(event); err == nil {
			s.feed.Broadcast(msg)
		}
	}
	if s.config.StreamFrames && len(image) > 0 {
		s.feed.Broadcast(hub.NewFrame(image))
	}
}

// Alerts returns the recent alert history, oldest first.
func (s *Server) Alerts() []AlertEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AlertEvent(nil), s.alerts...)
}

// Latest returns the most recent frame, if any.
func (s *Server) Latest() (pipeline.FrameResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return pipeline.FrameResult{}, false
	}
	return *s.latest, true
}

// Viewers returns connected websocket clients per feed. A client on
// /ws/feed counts once for each feed it subscribed to.
func (s *Server) Viewers() map[string]int {
	v := make(map[string]int, 3)
	for _, k := range []hub.Kind{hub.KindOverlay, hub.KindAlert, hub.KindFrame} {
		v[k.String()] = s.feed.ClientCount(k)
	}
	return v
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

var _ pipeline.Sink = (*Server)(nil)
