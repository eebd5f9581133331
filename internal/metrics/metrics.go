// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics provides Prometheus instrumentation for the
// recommendation service: request latency and cache efficiency,
// training runs, event ingestion, and model state.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recsys_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cache_hit", "status"},
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_recommend_errors_total",
			Help: "Total number of failed recommendation requests",
		},
		[]string{"reason"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recsys_training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"status"},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recsys_model_version",
			Help: "Current model version, incremented on each successful training run",
		},
	)

	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_events_ingested_total",
			Help: "Total number of interaction events accepted",
		},
		[]string{"type"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recsys_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Recorder adapts the package metrics to the engine's observer
// interface so the recommend package stays free of Prometheus imports.
type Recorder struct{}

// NewRecorder creates the Prometheus-backed engine recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveRequest records one recommendation request.
func (r *Recorder) ObserveRequest(duration time.Duration, cacheHit bool, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		RecommendErrors.WithLabelValues("engine").Inc()
	}
	RecommendDuration.WithLabelValues(strconv.FormatBool(cacheHit), status).Observe(duration.Seconds())
}

// ObserveTraining records one training run.
func (r *Recorder) ObserveTraining(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TrainingRuns.WithLabelValues(status).Inc()
	TrainingDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records one HTTP request by route and status code.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordEvent records one accepted interaction event.
func RecordEvent(eventType string) {
	EventsIngested.WithLabelValues(eventType).Inc()
}

// SetModelVersion publishes the current model version.
func SetModelVersion(version int) {
	ModelVersion.Set(float64(version))
}
