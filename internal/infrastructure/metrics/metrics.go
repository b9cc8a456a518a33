package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generations
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagramgen_generations_total",
			Help: "Number of diagram generation attempts by result",
		},
		[]string{"result"}, // result: ok|invalid_input|upstream_error|bad_diagram
	)
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diagramgen_generation_duration_seconds",
			Help:    "Histogram of full generation durations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s..64s
		},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagramgen_llm_requests_total",
			Help: "Number of LLM requests by model",
		},
		[]string{"model"},
	)

	// DB / archive ops
	DBOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagramgen_db_ops_total",
			Help: "Database and archive operations performed",
		},
		[]string{"op"}, // op: get|put|delete|list
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagramgen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationDurationSeconds,
		LLMRequests,
		DBOps,
		Errors,
	)
}

func StartMetricsServer() {
	http.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(":2112", nil)
}

func IncGeneration(result string) {
	Generations.WithLabelValues(result).Inc()
}

func ObserveGenerationDuration(d time.Duration) {
	GenerationDurationSeconds.Observe(d.Seconds())
}

func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

func IncDBOp(op string) {
	DBOps.WithLabelValues(op).Inc()
}

func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
