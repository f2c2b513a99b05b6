package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/services"
)

// IPOHandler serves merged records read back from the sink.
type IPOHandler struct {
	Reader  database.RecordReader
	Scoring *services.ScoringService
}

// NewIPOHandler creates a handler. reader is nil when the sink cannot read.
func NewIPOHandler(reader database.RecordReader, scoring *services.ScoringService) *IPOHandler {
	return &IPOHandler{Reader: reader, Scoring: scoring}
}

func (h *IPOHandler) GetIPO(c *fiber.Ctx) error {
	record, status, err := h.lookup(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// GetPrediction scores the stored record for :slug.
func (h *IPOHandler) GetPrediction(c *fiber.Ctx) error {
	record, status, err := h.lookup(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"slug":       record.Slug,
			"ipo_name":   record.IPOName,
			"prediction": h.Scoring.PredictionForRecord(record),
		},
	})
}

func (h *IPOHandler) lookup(c *fiber.Ctx) (*models.IPORecord, int, error) {
	if h.Reader == nil {
		return nil, fiber.StatusNotImplemented, errors.New("the configured sink cannot read records")
	}

	slug := c.Params("slug")
	record, err := h.Reader.GetIPO(c.UserContext(), slug)
	if errors.Is(err, database.ErrRecordNotFound) {
		return nil, fiber.StatusNotFound, errors.New("IPO not found")
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "IPOHandler",
			"slug":      slug,
		}).WithError(err).Error("Failed to read IPO")
		return nil, fiber.StatusInternalServerError, errors.New("failed to read IPO")
	}
	return record, fiber.StatusOK, nil
}
