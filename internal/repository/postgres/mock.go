package postgres

import (
	"context"
	"sync"

	"github.com/gasolina/backend/internal/domain"
)

const mockCapacity = 500

// MockRepository keeps prediction logs in memory when no database is available
type MockRepository struct {
	mu   sync.RWMutex
	logs []domain.PredictionLog
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SavePrediction stores the log, dropping the oldest once full
func (r *MockRepository) SavePrediction(ctx context.Context, log domain.PredictionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, log)
	if len(r.logs) > mockCapacity {
		r.logs = r.logs[len(r.logs)-mockCapacity:]
	}
	return nil
}

// RecentPredictions returns up to limit logs, newest first
func (r *MockRepository) RecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit > len(r.logs) {
		limit = len(r.logs)
	}
	out := make([]domain.PredictionLog, 0, limit)
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.logs[i])
	}
	return out, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
