package history

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricHistoryWritesTotal   = "recommendation_history_writes_total"
	MetricHistoryWriteDuration = "recommendation_history_write_duration_seconds"
	MetricHistoryRecordsTotal  = "recommendation_history_records_total"
	MetricHistoryDroppedTotal  = "recommendation_history_dropped_batches_total"
)

// Status constants for write completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains Prometheus metrics for history persistence.
// All operations are thread-safe.
type Metrics struct {
	writesTotal   *prometheus.CounterVec
	writeDuration prometheus.Histogram
	recordsTotal  prometheus.Counter
	droppedTotal  prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them.
func NewMetrics() *Metrics {
	return &Metrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHistoryWritesTotal,
				Help: "Total number of history batch writes by status",
			},
			[]string{"status"},
		),
		writeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricHistoryWriteDuration,
				Help:    "Histogram of history batch write duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),
		recordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricHistoryRecordsTotal,
				Help: "Total number of recommendation records persisted",
			},
		),
		droppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricHistoryDroppedTotal,
				Help: "Total number of history batches dropped due to a full queue",
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		m.writesTotal,
		m.writeDuration,
		m.recordsTotal,
		m.droppedTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveWrite records one batch write outcome.
func (m *Metrics) ObserveWrite(status string, records int, seconds float64) {
	m.writesTotal.WithLabelValues(status).Inc()
	m.writeDuration.Observe(seconds)
	if status == StatusSuccess {
		m.recordsTotal.Add(float64(records))
	}
}

// ObserveDropped records one dropped batch.
func (m *Metrics) ObserveDropped() {
	m.droppedTotal.Inc()
}
