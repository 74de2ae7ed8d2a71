package predict

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records calls made by the HTTP client. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// requests counts calls by endpoint and outcome
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "homeval_prediction_requests_total",
			Help: "Prediction service calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		// duration tracks round-trip latency
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homeval_prediction_request_duration_seconds",
			Help:    "Prediction service round-trip duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) observe(endpoint, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}
