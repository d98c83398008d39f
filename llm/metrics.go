package llm

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets covers provider latencies from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ProviderRequestsTotal counts completion attempts by provider and outcome.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdesk_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records provider latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragdesk_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// AnswersTotal counts generated answers by the source that produced them.
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdesk_answers_total",
			Help: "Generated answers",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderLatency,
		AnswersTotal,
	)
}
