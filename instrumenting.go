package ragdesk

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts service calls by method and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdesk_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records service call duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragdesk_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
	)
}

func InstrumentingMiddleware() ServiceMiddleware {
	return func(next Service) Service {
		return &instrumentingMiddleware{next}
	}
}

type instrumentingMiddleware struct {
	next Service
}

func observe(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	RequestsTotal.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (mw *instrumentingMiddleware) Close() error {
	return mw.next.Close()
}

func (mw *instrumentingMiddleware) Rebuild(ctx context.Context) (Stats, error) {
	start := time.Now()

	stats, err := mw.next.Rebuild(ctx)
	observe("rebuild", start, err)

	return stats, err
}

func (mw *instrumentingMiddleware) Retrieve(ctx context.Context, query string, k ...int) (RetrievalResult, error) {
	start := time.Now()

	result, err := mw.next.Retrieve(ctx, query, k...)
	observe("retrieve", start, err)

	return result, err
}

func (mw *instrumentingMiddleware) AnswerQuery(ctx context.Context, query string) (QueryResponse, error) {
	start := time.Now()

	resp, err := mw.next.AnswerQuery(ctx, query)
	observe("answer_query", start, err)

	return resp, err
}

func (mw *instrumentingMiddleware) Stats(ctx context.Context) (Stats, error) {
	start := time.Now()

	stats, err := mw.next.Stats(ctx)
	observe("stats", start, err)

	return stats, err
}
