package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	llmCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_completions_total",
			Help: "Schema-constrained completions by schema and outcome",
		},
		[]string{"schema", "outcome"},
	)

	llmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Completion latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"schema"},
	)

	llmCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_cache_hits_total",
			Help: "Completions served from the in-process cache",
		},
		[]string{"schema"},
	)

	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ot_operations_total",
			Help: "Orchestrated operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ot_operation_duration_seconds",
			Help:    "Orchestrated operation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)
)

// ObserveCompletion records one completion call.
func ObserveCompletion(schema, outcome string, d time.Duration) {
	llmCompletions.WithLabelValues(schema, outcome).Inc()
	llmDuration.WithLabelValues(schema).Observe(d.Seconds())
}

// IncCacheHit counts a completion served from cache.
func IncCacheHit(schema string) {
	llmCacheHits.WithLabelValues(schema).Inc()
}

// ObserveOperation records one analyze or soap_notes run.
func ObserveOperation(operation, outcome string, d time.Duration) {
	operations.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
