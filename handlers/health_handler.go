package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fenilmodi00/ipo-sync/database"
)

type HealthHandler struct {
	Sink database.Sink
}

func NewHealthHandler(sink database.Sink) *HealthHandler {
	return &HealthHandler{Sink: sink}
}

// Health reports process liveness and whether the sink answers.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	overall, sinkStatus := "ok", "ok"
	code := fiber.StatusOK
	if h.Sink == nil {
		sinkStatus = "not configured"
	} else if err := h.Sink.Ping(c.UserContext()); err != nil {
		overall, sinkStatus = "degraded", err.Error()
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    overall,
		"sink":      sinkStatus,
		"timestamp": time.Now().Unix(),
	})
}
