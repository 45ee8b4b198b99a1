package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unibus-go-api/internal/service"
)

// MonitorHandler upgrades dashboard connections to websockets and streams
// accepted scan events to them.
type MonitorHandler struct {
	monitor service.MonitorService
	logger  zerolog.Logger
}

// NewMonitorHandler constructs the handler.
func NewMonitorHandler(monitor service.MonitorService, logger zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor: monitor,
		logger:  logger.With().Str("component", "monitor_handler").Logger(),
	}
}

// Register wires the live monitor websocket under the provided group.
func (h *MonitorHandler) Register(router fiber.Router) {
	router.Use("/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/live", websocket.New(h.handleConnection))
}

func (h *MonitorHandler) handleConnection(conn *websocket.Conn) {
	events, cancel := h.monitor.Subscribe()
	defer cancel()

	h.logger.Info().Msg("monitor websocket connected")
	defer h.logger.Info().Msg("monitor websocket disconnected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain reads so close frames and pings are processed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
