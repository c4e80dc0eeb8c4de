package service

import (
	"github.com/gasolina/backend/internal/domain"
)

// PredictionRepository is re-exported from domain for convenience
type PredictionRepository = domain.PredictionRepository
