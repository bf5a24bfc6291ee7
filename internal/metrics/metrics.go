package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb5_signups_total",
			Help: "Accounts created, by initial role",
		},
		[]string{"role"},
	)

	stageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb5_stage_transitions_total",
			Help: "Stage status changes, by resulting status",
		},
		[]string{"status"},
	)

	gatewayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb5_gateway_errors_total",
			Help: "Persistence gateway failures, by operation and backend",
		},
		[]string{"op", "backend"},
	)
)

func RecordSignup(role string) {
	signups.WithLabelValues(role).Inc()
}

func RecordStageTransition(status string) {
	stageTransitions.WithLabelValues(status).Inc()
}

func RecordGatewayError(op, backend string) {
	gatewayErrors.WithLabelValues(op, backend).Inc()
}
