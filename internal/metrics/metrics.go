// Package metrics declares the Prometheus instruments for clipforge.
// Registration happens at import time via promauto; the metrics server
// is started from main when METRICS_ENABLED is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipforge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipforge_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Render job metrics
var (
	RenderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_render_jobs_total",
			Help: "Total number of render jobs by final status",
		},
		[]string{"format", "status"},
	)

	RenderJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipforge_render_job_duration_seconds",
			Help:    "Render job wall time in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"format"},
	)

	RenderJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipforge_render_jobs_in_flight",
			Help: "Number of render jobs currently running",
		},
	)

	RenderQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipforge_render_queue_depth",
			Help: "Number of render jobs waiting for a worker",
		},
	)
)

// Timeline operation metrics
var (
	TimelineOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_timeline_ops_total",
			Help: "Total number of server-side timeline operations",
		},
		[]string{"op", "status"},
	)
)

// Audio extraction metrics
var (
	AudioExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_audio_extractions_total",
			Help: "Total number of audio extraction attempts",
		},
		[]string{"status"},
	)

	AudioExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clipforge_audio_extraction_duration_seconds",
			Help:    "Audio extraction wall time in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_thumbnail_generations_total",
			Help: "Total number of asset thumbnail generations",
		},
		[]string{"kind", "status"},
	)
)

// InitializeMetrics pre-populates the label combinations that matter for
// dashboards, so every series exists from the first scrape.
func InitializeMetrics() {
	for _, format := range []string{"mp4", "webm", "gif", "wav", "mp3"} {
		for _, status := range []string{"done", "error"} {
			RenderJobsTotal.WithLabelValues(format, status)
		}
		RenderJobDuration.WithLabelValues(format)
	}

	for _, op := range []string{"split", "duplicate", "delete", "delete-row",
		"remove-gap", "swap-rows", "move", "resize", "detach-audio"} {
		TimelineOpsTotal.WithLabelValues(op, "ok")
		TimelineOpsTotal.WithLabelValues(op, "rejected")
	}

	for _, status := range []string{"ok", "error", "fallback"} {
		AudioExtractionsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"image", "video"} {
		ThumbnailGenerationsTotal.WithLabelValues(kind, "success")
		ThumbnailGenerationsTotal.WithLabelValues(kind, "error")
	}
}
