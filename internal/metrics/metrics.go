// Package metrics exposes Prometheus metrics for price estimates
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Estimate outcomes
const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeUnknownState = "unknown_state"
	OutcomeError        = "error"
)

// Metrics holds the collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	estimatesTotal   *prometheus.CounterVec
	estimateDuration prometheus.Histogram
	lastPrice        *prometheus.GaugeVec
	logErrors        prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		estimatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasolina",
			Name:      "estimates_total",
			Help:      "Price estimates by outcome",
		}, []string{"outcome"}),
		estimateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gasolina",
			Name:      "estimate_duration_seconds",
			Help:      "Time spent encoding and predicting",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		lastPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gasolina",
			Name:      "last_estimated_price_mxn",
			Help:      "Most recent estimated price per state",
		}, []string{"state"}),
		logErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gasolina",
			Name:      "prediction_log_errors_total",
			Help:      "Prediction logs that failed to persist",
		}),
	}

	m.registry.MustRegister(m.estimatesTotal, m.estimateDuration, m.lastPrice, m.logErrors)
	return m
}

// ObserveEstimate records one estimate attempt
func (m *Metrics) ObserveEstimate(outcome string, elapsed time.Duration) {
	m.estimatesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.estimateDuration.Observe(elapsed.Seconds())
	}
}

// SetLastPrice records the latest price for a state
func (m *Metrics) SetLastPrice(state string, price float64) {
	m.lastPrice.WithLabelValues(state).Set(price)
}

// IncLogErrors counts a failed prediction log write
func (m *Metrics) IncLogErrors() {
	m.logErrors.Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
