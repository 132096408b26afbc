// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the frage proxy.
package observability

import "github.com/prometheus/client_golang/prometheus"

// TurnBuckets defines histogram buckets suited for agent turn latencies,
// ranging from 100ms to 120s.
var TurnBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, path, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frage_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and path.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frage_request_duration_seconds",
			Help:    "Request duration",
			Buckets: TurnBuckets,
		},
		[]string{"method", "path"},
	)

	// TurnDuration records the duration of full conversational turns
	// (message post through reply retrieval).
	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "frage_turn_duration_seconds",
			Help:    "Conversation turn duration",
			Buckets: TurnBuckets,
		},
	)

	// RunPollsTotal counts run status reads against the upstream agent.
	RunPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frage_run_polls_total",
			Help: "Run status polls",
		},
	)

	// RunsTotal counts runs by the terminal status they resolved with.
	// Runs that outlive the local deadline count as "expired".
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frage_runs_total",
			Help: "Runs by terminal status",
		},
		[]string{"status"},
	)

	// ConflictsTotal counts turns rejected because a run was already in
	// flight on the same thread.
	ConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frage_thread_conflicts_total",
			Help: "Same-thread turn conflicts",
		},
	)

	// HealthStatus reports the last probe verdict (1 healthy, 0 unhealthy).
	HealthStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "frage_health_status",
			Help: "Last health probe verdict (1 healthy, 0 unhealthy)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		TurnDuration,
		RunPollsTotal,
		RunsTotal,
		ConflictsTotal,
		HealthStatus,
	)
}
