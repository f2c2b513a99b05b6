package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/jobs"
)

// AdminTokenHeader carries the admin token.
const AdminTokenHeader = "X-Admin-Token"

type AdminHandler struct {
	Jobs  *jobs.Registry
	Token string

	// base scopes syncs that outlive the request that started them.
	base context.Context
}

// NewAdminHandler builds the admin routes. Background syncs run on base, so
// cancelling it stops them; a nil base never cancels.
func NewAdminHandler(base context.Context, registry *jobs.Registry, token string) *AdminHandler {
	if base == nil {
		base = context.Background()
	}
	return &AdminHandler{Jobs: registry, Token: token, base: base}
}

// RequireToken rejects requests without the configured admin token. With no
// token configured every admin request is refused.
func (h *AdminHandler) RequireToken(c *fiber.Ctx) error {
	if h.Token == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Admin API is disabled, set ADMIN_TOKEN to enable it",
		})
	}
	given := c.Get(AdminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.Token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid admin token",
		})
	}
	return c.Next()
}

// TriggerSync starts the job named by :job. With ?wait=true the request
// blocks until the run finishes and returns its report.
func (h *AdminHandler) TriggerSync(c *fiber.Ctx) error {
	name := c.Params("job")
	job, err := h.Jobs.Get(name)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if job.IsRunning() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Sync job " + name + " is already running",
		})
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": "AdminHandler",
		"job":       name,
	})
	logger.Info("Manual sync triggered via admin endpoint")

	if !c.QueryBool("wait") {
		go func() {
			if _, err := job.Run(h.base); err != nil && !errors.Is(err, jobs.ErrAlreadyRunning) {
				logger.WithError(err).Error("Manual sync failed")
			}
		}()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success":   true,
			"message":   "Sync job " + name + " started",
			"timestamp": time.Now(),
		})
	}

	startTime := time.Now()
	report, err := job.Run(c.UserContext())
	switch {
	case errors.Is(err, jobs.ErrAlreadyRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    report,
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Sync job " + name + " completed",
		"duration": time.Since(startTime).String(),
		"data":     report,
	})
}

// GetMetrics returns the run metrics of every job.
func (h *AdminHandler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Jobs.Snapshots(),
	})
}
