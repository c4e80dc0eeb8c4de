package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gasolina/backend/internal/domain"
	"github.com/gasolina/backend/internal/metrics"
	"github.com/gasolina/backend/pkg/utils"
)

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// PriceEstimator is the per-process context built once from the loaded
// artifacts. Its encoder, model and state list are read-only, so Estimate
// may be called concurrently.
type PriceEstimator struct {
	encoder  domain.FeatureEncoder
	model    domain.Regressor
	states   []string
	repo     PredictionRepository
	metrics  *metrics.Metrics
	validate *validator.Validate
	logger   zerolog.Logger

	wgBg sync.WaitGroup // tracks background log writes for graceful shutdown
}

// NewPriceEstimator creates a new estimator. states are the values offered to
// users; when empty, the encoder categories are used.
func NewPriceEstimator(
	encoder domain.FeatureEncoder,
	model domain.Regressor,
	states []string,
	repo PredictionRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *PriceEstimator {
	s := &PriceEstimator{
		encoder:  encoder,
		model:    model,
		repo:     repo,
		metrics:  m,
		validate: newValidator(),
		logger:   logger.With().Str("component", "estimator").Logger(),
	}

	if len(states) == 0 {
		s.states = encoder.Categories()
	} else {
		s.states = make([]string, len(states))
		copy(s.states, states)
		s.warnUnknownStates()
	}

	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// warnUnknownStates logs dataset states the encoder was not fit on. Selecting
// one of them yields an UnknownCategory error.
func (s *PriceEstimator) warnUnknownStates() {
	known := make(map[string]struct{})
	for _, c := range s.encoder.Categories() {
		known[c] = struct{}{}
	}

	var missing []string
	for _, st := range s.states {
		if _, ok := known[st]; !ok {
			missing = append(missing, st)
		}
	}
	if len(missing) > 0 {
		s.logger.Warn().Strs("states", missing).Msg("dataset states unknown to the encoder")
	}
}

// States returns the states offered for selection
func (s *PriceEstimator) States() []string {
	out := make([]string, len(s.states))
	copy(out, s.states)
	return out
}

// ModelKind reports the loaded model kind
func (s *PriceEstimator) ModelKind() string {
	return s.model.Kind()
}

// WaitBackground blocks until all background log writes complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *PriceEstimator) WaitBackground() {
	s.wgBg.Wait()
}

// Estimate validates q, encodes it and runs the model
func (s *PriceEstimator) Estimate(ctx context.Context, q domain.PriceQuery) (domain.Estimate, error) {
	start := time.Now()

	// q.State may alias a request buffer; the metric label and the stored
	// log outlive the request.
	q.State = strings.Clone(q.State)

	if err := s.validateQuery(q); err != nil {
		s.metrics.ObserveEstimate(metrics.OutcomeInvalid, 0)
		return domain.Estimate{}, err
	}

	vec, err := s.encoder.Encode(q.State, q.Year, q.Month)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCategory) {
			s.metrics.ObserveEstimate(metrics.OutcomeUnknownState, 0)
			return domain.Estimate{}, err
		}
		s.metrics.ObserveEstimate(metrics.OutcomeError, 0)
		return domain.Estimate{}, fmt.Errorf("estimator: failed to encode features: %w", err)
	}

	price, err := s.model.Predict(vec)
	if err != nil {
		s.metrics.ObserveEstimate(metrics.OutcomeError, 0)
		return domain.Estimate{}, fmt.Errorf("estimator: failed to predict: %w", err)
	}

	s.metrics.ObserveEstimate(metrics.OutcomeOK, time.Since(start))
	s.metrics.SetLastPrice(q.State, price)

	est := domain.Estimate{
		State:    q.State,
		Year:     q.Year,
		Month:    q.Month,
		Price:    price,
		Currency: domain.Currency,
		Unit:     domain.Unit,
	}

	s.logger.Debug().
		Str("state", q.State).
		Int("year", q.Year).
		Int("month", q.Month).
		Float64("price", price).
		Msg("estimate")

	s.saveAsync(est)

	return est, nil
}

func (s *PriceEstimator) validateQuery(q domain.PriceQuery) error {
	err := s.validate.Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("estimator: failed to validate query: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += " " + fe.Param()
		}
		fields = append(fields, msg)
	}
	return &domain.ValidationError{Fields: fields}
}

// saveAsync persists the estimate without delaying the response
func (s *PriceEstimator) saveAsync(est domain.Estimate) {
	log := domain.PredictionLog{
		ID:        uuid.NewString(),
		State:     est.State,
		Year:      est.Year,
		Month:     est.Month,
		Price:     est.Price,
		ModelKind: s.model.Kind(),
		CreatedAt: time.Now().UTC(),
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SavePrediction(bgCtx, log); err != nil {
			s.metrics.IncLogErrors()
			s.logger.Warn().Err(err).Str("id", log.ID).Msg("failed to save prediction log")
		}
	}()
}

// History returns recent prediction logs, newest first
func (s *PriceEstimator) History(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	limit = utils.Clamp(limit, 1, MaxHistoryLimit)
	logs, err := s.repo.RecentPredictions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("estimator: failed to load history: %w", err)
	}
	return logs, nil
}

// Health checks the prediction log storage
func (s *PriceEstimator) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}
