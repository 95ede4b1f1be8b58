package metrics

import "github.com/prometheus/client_golang/prometheus"

// Encoder Prometheus metrics.
var (
	EncoderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_requests_total",
			Help:      "Total number of query encoder requests",
		},
		[]string{"provider", "model", "status"},
	)

	EncoderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "encoder_request_duration_seconds",
			Help:      "Query encoder request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EncoderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_tokens_total",
			Help:      "Total encoder tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EncoderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_errors_total",
			Help:      "Total query encoder errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EncoderCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_cache_total",
			Help:      "Query vector cache hits and misses",
		},
		[]string{"layer", "result"}, // layer: "memory" / "valkey"; result: "hit" / "miss"
	)
)

var encMetricsRegistered bool

// RegisterEncoderMetrics registers the encoder metrics. Must be called once from main.
func RegisterEncoderMetrics() {
	if encMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		EncoderRequestsTotal,
		EncoderRequestDuration,
		EncoderTokensTotal,
		EncoderErrorsTotal,
		EncoderCacheTotal,
	)
	encMetricsRegistered = true
}
