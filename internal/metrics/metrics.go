// Package metrics exposes Prometheus instrumentation for the pipeline and
// the HTTP API. Collectors register on the default registry at init.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"engagement-optimizer/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StageIngest  = "ingest"
	StageAnalyze = "analyze"
	StageReport  = "report"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_pipeline_runs_total",
			Help: "Pipeline stage executions by outcome",
		},
		[]string{"stage", "status"}, // status: ok | error
	)

	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_records_ingested_total",
			Help: "Content records stored by the ingest stage",
		},
		[]string{"channel"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_validation_failures_total",
			Help: "Inputs rejected for violating the record schema",
		},
		[]string{"source"}, // file | youtube | api | store
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engagement_analysis_duration_seconds",
			Help:    "Time spent ranking records and suggesting topics",
			Buckets: prometheus.DefBuckets,
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_api_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engagement_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordStage counts one stage execution. Schema violations are also
// counted as validation failures attributed to source.
func RecordStage(stage, source string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, model.ErrInvalidRecord) {
			ValidationFailures.WithLabelValues(source).Inc()
		}
	}
	PipelineRuns.WithLabelValues(stage, status).Inc()
}

// RecordIngested adds n stored records for a channel.
func RecordIngested(channel string, n int) {
	RecordsIngested.WithLabelValues(channel).Add(float64(n))
}

// ObserveAnalysis records the duration of one analysis pass.
func ObserveAnalysis(d time.Duration) {
	AnalysisDuration.Observe(d.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
