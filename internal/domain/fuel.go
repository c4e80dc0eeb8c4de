package domain

import "time"

// Bounds accepted for a price query. The encoder itself does not enforce them.
const (
	MinYear = 2017
	MaxYear = 2030

	DefaultYear  = 2024
	DefaultMonth = 6
)

// Currency and unit of every estimate
const (
	Currency = "MXN"
	Unit     = "litro"
)

// FeatureVector is the model-ready input: a one-hot block over the state
// categories followed by year and month.
type FeatureVector []float64

// PriceQuery is one user selection
type PriceQuery struct {
	State string `json:"state" validate:"required"`
	Year  int    `json:"year" validate:"min=2017,max=2030"`
	Month int    `json:"month" validate:"min=1,max=12"`
}

// Estimate is the predicted price for a PriceQuery
type Estimate struct {
	State    string  `json:"state"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Unit     string  `json:"unit"`
}

// EstimateResponse wraps an estimate with metadata
type EstimateResponse struct {
	Data    Estimate `json:"data"`
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
}

// PredictionLog is a persisted estimate
type PredictionLog struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Price     float64   `json:"price"`
	ModelKind string    `json:"model_kind"`
	CreatedAt time.Time `json:"created_at"`
}
