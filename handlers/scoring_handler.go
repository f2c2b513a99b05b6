package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/services"
)

// LiveMessage is returned by the root route.
const LiveMessage = "IPO Dashboard Intelligence API is live! 🚀"

type ScoringHandler struct {
	Scoring *services.ScoringService
}

func NewScoringHandler(scoring *services.ScoringService) *ScoringHandler {
	return &ScoringHandler{Scoring: scoring}
}

// Root reports that the API is up.
func (h *ScoringHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": LiveMessage})
}

// PredictListing returns the bare estimate.
func (h *ScoringHandler) PredictListing(c *fiber.Ctx) error {
	req, err := parsePredictionRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h.Scoring.PredictListing(req))
}

// PredictListingV1 returns the estimate in the API envelope.
func (h *ScoringHandler) PredictListingV1(c *fiber.Ctx) error {
	req, err := parsePredictionRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Scoring.PredictListing(req),
	})
}

// AnalyzeSentiment returns the bare sentiment result.
func (h *ScoringHandler) AnalyzeSentiment(c *fiber.Ctx) error {
	req, err := parseSentimentRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h.Scoring.AnalyzeSentiment(req.Text))
}

// AnalyzeSentimentV1 returns the sentiment result in the API envelope.
func (h *ScoringHandler) AnalyzeSentimentV1(c *fiber.Ctx) error {
	req, err := parseSentimentRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Scoring.AnalyzeSentiment(req.Text),
	})
}

func parsePredictionRequest(c *fiber.Ctx) (models.PredictionRequest, error) {
	var req models.PredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if !req.Category.Valid() {
		return req, fiber.NewError(fiber.StatusBadRequest, "category must be Mainboard or SME")
	}
	return req, nil
}

func parseSentimentRequest(c *fiber.Ctx) (models.SentimentRequest, error) {
	var req models.SentimentRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return req, fiber.NewError(fiber.StatusBadRequest, "text is required")
	}
	return req, nil
}
