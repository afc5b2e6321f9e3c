package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion worker

var (
	// Upstream fetch metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcast_fetches_total",
			Help: "Total number of upstream page fetches",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcast_fetch_duration_seconds",
			Help:    "Duration of upstream page fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Ingestion run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcast_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcast_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	RunsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchcast_runs_skipped_total",
			Help: "Ingestion runs skipped because one was already in progress",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchcast_last_successful_run_timestamp",
			Help: "Timestamp of the last successful ingestion run",
		},
	)

	// Enrichment metrics
	EnrichTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcast_enrich_tasks_total",
			Help: "Total number of detail enrichment tasks",
		},
		[]string{"status"},
	)

	// Snapshot metrics
	FixturesInSnapshot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchcast_fixtures_in_snapshot",
			Help: "Number of fixture records in the last persisted snapshot",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcast_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchcast_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordFetch records an upstream fetch metric
func RecordFetch(status string, duration float64) {
	FetchesTotal.WithLabelValues(status).Inc()
	FetchDuration.Observe(duration)
}

// RecordRun records an ingestion run
func RecordRun(status string, duration float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordEnrichTask records the outcome of one enrichment task
func RecordEnrichTask(status string) {
	EnrichTasksTotal.WithLabelValues(status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
