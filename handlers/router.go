// Package handlers exposes the scoring endpoints, record lookups and admin
// controls over HTTP.
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/jobs"
	"github.com/fenilmodi00/ipo-sync/services"
)

// Dependencies are the collaborators the routes need. Sink and Jobs may be nil
// in tests; routes that need them then answer with an error.
type Dependencies struct {
	Sink       database.Sink
	Jobs       *jobs.Registry
	Scoring    *services.ScoringService
	AdminToken string
	// BaseContext bounds syncs started in the background by the admin API.
	BaseContext context.Context
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// NewApp builds the fiber app with every route mounted.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ipo-sync",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	if deps.Scoring == nil {
		deps.Scoring = services.NewScoringService(nil)
	}
	var reader database.RecordReader
	if r, ok := deps.Sink.(database.RecordReader); ok {
		reader = r
	}
	registry := deps.Jobs
	if registry == nil {
		registry = &jobs.Registry{}
	}

	scoringHandler := NewScoringHandler(deps.Scoring)
	healthHandler := NewHealthHandler(deps.Sink)
	ipoHandler := NewIPOHandler(reader, deps.Scoring)
	adminHandler := NewAdminHandler(deps.BaseContext, registry, deps.AdminToken)

	app.Get("/", scoringHandler.Root)
	app.Get("/health", healthHandler.Health)
	app.Post("/predict-listing", scoringHandler.PredictListing)
	app.Post("/analyze-sentiment", scoringHandler.AnalyzeSentiment)

	api := app.Group("/api/v1")
	api.Post("/predict-listing", scoringHandler.PredictListingV1)
	api.Post("/analyze-sentiment", scoringHandler.AnalyzeSentimentV1)
	api.Get("/ipos/:slug/prediction", ipoHandler.GetPrediction)
	api.Get("/ipos/:slug", ipoHandler.GetIPO)

	admin := api.Group("/admin", adminHandler.RequireToken)
	admin.Post("/sync/:job", adminHandler.TriggerSync)
	admin.Get("/metrics", adminHandler.GetMetrics)

	return app
}
