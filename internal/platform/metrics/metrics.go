// Package metrics holds the Prometheus instruments for the analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for batch runs and the serving layer. All
// methods are nil-safe so callers can skip wiring metrics in tests.
type Metrics struct {
	DistrictsScored  prometheus.Counter
	DistrictsSkipped *prometheus.CounterVec
	Recommendations  prometheus.Counter
	BatchDuration    prometheus.Histogram
	RequestDuration  *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		DistrictsScored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "niis_districts_scored_total",
			Help: "Total districts successfully scored across batch runs",
		}),
		DistrictsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "niis_districts_skipped_total",
			Help: "Total districts excluded from batch results by failure code",
		}, []string{"code"}),
		Recommendations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "niis_recommendations_emitted_total",
			Help: "Total intervention recommendations emitted",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "niis_batch_duration_seconds",
			Help:    "Duration of full batch computations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "niis_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
	}
}

// IncrementScored records one successfully scored district.
func (m *Metrics) IncrementScored() {
	if m != nil {
		m.DistrictsScored.Inc()
	}
}

// IncrementSkipped records a skipped district by failure code.
func (m *Metrics) IncrementSkipped(code string) {
	if m != nil {
		m.DistrictsSkipped.WithLabelValues(code).Inc()
	}
}

// AddRecommendations records emitted recommendations.
func (m *Metrics) AddRecommendations(n int) {
	if m != nil {
		m.Recommendations.Add(float64(n))
	}
}

// ObserveBatchDuration records a full batch computation.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}

// ObserveRequest records one HTTP request by route pattern.
func (m *Metrics) ObserveRequest(route string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
	}
}
