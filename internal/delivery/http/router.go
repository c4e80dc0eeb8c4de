package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/gasolina/backend/internal/metrics"
	"github.com/gasolina/backend/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, estimator *service.PriceEstimator, m *metrics.Metrics, logger zerolog.Logger) {
	handler := NewHandler(estimator, logger)

	// Form
	app.Get("/", handler.Index)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Get("/states", handler.GetStates)
		api.Post("/predict", handler.Predict)
		api.Get("/predictions", handler.GetPredictions)
	}
}
