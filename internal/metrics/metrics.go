package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_ingest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_db_queries_total",
			Help: "Total number of catalog database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_ingest_db_query_duration_seconds",
			Help:    "Catalog database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Quota metrics
var (
	QuotaReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_quota_reservations_total",
			Help: "Total number of quota reservation operations",
		},
		[]string{"status"}, // "reserved", "rejected", "released"
	)

	QuotaReservedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_ingest_quota_reserved_bytes",
			Help: "Net bytes reserved against quota accounts during this run",
		},
	)
)

// Pipeline metrics
var (
	PipelineItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_pipeline_items_total",
			Help: "Total number of items reaching a terminal state",
		},
		[]string{"outcome"}, // "cataloged", "skipped", "failed"
	)

	PipelineFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_pipeline_failures_total",
			Help: "Total number of item failures by kind",
		},
		[]string{"kind"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_ingest_pipeline_stage_duration_seconds",
			Help:    "Per-item stage duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	PipelineRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_ingest_pipeline_running",
			Help: "Whether the pipeline is currently running (1 = running, 0 = idle)",
		},
	)
)

// Progress metrics
var (
	ProgressFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_ingest_progress_files",
			Help: "File counts for the current run",
		},
		[]string{"state"}, // "seen", "done"
	)

	ProgressBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_ingest_progress_bytes",
			Help: "Byte counts for the current run",
		},
		[]string{"state"}, // "seen", "done"
	)

	ProgressPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_ingest_progress_percent",
			Help: "Completion percentage of the current run by bytes",
		},
	)
)

// Rendition metrics
var (
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_renders_total",
			Help: "Total number of rendition renders",
		},
		[]string{"engine", "status"}, // engine: "imaging", "vips"
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_ingest_render_duration_seconds",
			Help:    "Rendition render duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"engine"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_ingest_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen on NFS-backed volumes",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_ingest_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_ingest_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
