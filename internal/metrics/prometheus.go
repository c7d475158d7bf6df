package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentalqa_aggregation_duration_seconds",
			Help:    "Time spent fetching and joining questions with their responses",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"status"},
	)

	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_fetch_failures_total",
			Help: "Aggregation fetch failures by source table",
		},
		[]string{"source"},
	)

	QuestionsServed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentalqa_questions_in_snapshot",
			Help: "Number of questions in the most recent aggregated snapshot",
		},
	)

	OrphanedResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_orphaned_responses_total",
			Help: "Responses whose question was missing from the snapshot",
		},
		[]string{"kind"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_submissions_total",
			Help: "Question submissions by outcome and failing step",
		},
		[]string{"status", "step"},
	)

	SubmissionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentalqa_submissions_in_flight",
			Help: "Question submissions currently being written",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"backend"},
	)

	CacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_cache_invalidations_total",
			Help: "Total cache invalidations",
		},
		[]string{"backend"},
	)

	CacheBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rentalqa_cache_breaker_state",
			Help: "Cache circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalqa_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AggregationDuration)
		prometheus.MustRegister(FetchFailures)
		prometheus.MustRegister(QuestionsServed)
		prometheus.MustRegister(OrphanedResponses)
		prometheus.MustRegister(SubmissionsTotal)
		prometheus.MustRegister(SubmissionsInFlight)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(CacheInvalidations)
		prometheus.MustRegister(CacheBreakerState)
		prometheus.MustRegister(RateLimited)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
