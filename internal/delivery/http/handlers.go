package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gasolina/backend/internal/domain"
	"github.com/gasolina/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	estimator *service.PriceEstimator
	logger    zerolog.Logger
}

// NewHandler creates a new handler
func NewHandler(estimator *service.PriceEstimator, logger zerolog.Logger) *Handler {
	return &Handler{
		estimator: estimator,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK
	if err := h.estimator.Health(c.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"service":    "gasolina-backend",
		"version":    "1.0.0",
		"model_kind": h.estimator.ModelKind(),
		"states":     len(h.estimator.States()),
	})
}

// GetStates returns the selectable states
func (h *Handler) GetStates(c *fiber.Ctx) error {
	states := h.estimator.States()
	return c.JSON(fiber.Map{
		"success": true,
		"data":    states,
		"count":   len(states),
	})
}

// Predict estimates the price for one state, year and month
func (h *Handler) Predict(c *fiber.Ctx) error {
	var req domain.PriceQuery
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	est, err := h.estimator.Estimate(c.Context(), req)
	if err != nil {
		return estimateError(err)
	}

	return c.JSON(domain.EstimateResponse{
		Data:    est,
		Success: true,
	})
}

// GetPredictions returns recent prediction logs
func (h *Handler) GetPredictions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultHistoryLimit)

	logs, err := h.estimator.History(c.Context(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch prediction history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
		"count":   len(logs),
	})
}

// estimateError maps estimator errors to HTTP errors, keeping the cause visible
func estimateError(err error) error {
	var verr *domain.ValidationError
	var uerr *domain.UnknownCategoryError
	switch {
	case errors.As(err, &uerr):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Unknown state: "+uerr.Value)
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to get prediction: "+err.Error())
	}
}

// ErrorHandler renders every error as a JSON body
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
