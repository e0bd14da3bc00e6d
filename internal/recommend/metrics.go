package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks ranking engine observability: request counts per operation
// and cache outcome, candidate pool sizes, and end-to-end durations.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	ScoredCandidates *prometheus.HistogramVec
	RequestDuration  *prometheus.HistogramVec
}

// NewMetrics creates ranking engine metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_requests_total",
				Help: "Total recommendation requests by operation and cache outcome",
			},
			[]string{"operation", "cache"},
		),
		ScoredCandidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommendation_scored_candidates",
				Help:    "Number of candidates scored per request",
				Buckets: []float64{0, 5, 10, 25, 50, 100, 250},
			},
			[]string{"operation"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommendation_request_duration_seconds",
				Help:    "Recommendation request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Register registers all engine metrics with the provided registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		m.RequestsTotal,
		m.ScoredCandidates,
		m.RequestDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeRequest(operation, cacheOutcome string, candidates int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, cacheOutcome).Inc()
	m.ScoredCandidates.WithLabelValues(operation).Observe(float64(candidates))
	m.RequestDuration.WithLabelValues(operation).Observe(seconds)
}
