package domain

import "context"

// FeatureEncoder turns a selection into a FeatureVector
type FeatureEncoder interface {
	// Categories returns the ordered category set fixed at fit time
	Categories() []string

	// Width is len(Categories()) + 2
	Width() int

	// Encode builds the one-hot block followed by year and month
	Encode(state string, year, month int) (FeatureVector, error)
}

// Regressor is a fitted model
type Regressor interface {
	Predict(features FeatureVector) (float64, error)
	NumFeatures() int
	Kind() string
}

// PredictionRepository defines the interface for prediction log persistence
type PredictionRepository interface {
	// SavePrediction persists one estimate
	SavePrediction(ctx context.Context, log PredictionLog) error

	// RecentPredictions returns up to limit logs, newest first
	RecentPredictions(ctx context.Context, limit int) ([]PredictionLog, error)

	// Health checks storage connectivity
	Health(ctx context.Context) error
}
