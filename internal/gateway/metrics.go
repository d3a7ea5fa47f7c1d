package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments outbound calls to the system of record.
type Metrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers gateway collectors on the provided registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total outbound requests by operation and outcome",
	}, []string{"operation", "outcome"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of outbound requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	if reg != nil {
		reg.MustRegister(requestTotal, requestDuration)
	}

	return &Metrics{requestTotal: requestTotal, requestDuration: requestDuration}
}

// Observe records one completed outbound call.
func (m *Metrics) Observe(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
