// Package metrics provides Prometheus recording and querying for state
// inference operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records inference activity as Prometheus metrics.
type Recorder struct {
	inferencesTotal    *prometheus.CounterVec
	inferenceDuration  *prometheus.HistogramVec
	batchFallbackTotal *prometheus.CounterVec
}

// NewRecorder creates a Prometheus-based metrics recorder registered on the
// default registry.
func NewRecorder() *Recorder {
	return NewRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewRecorderWithRegistry creates a recorder registered on a specific
// registry. Tests use this to avoid duplicate registration panics.
func NewRecorderWithRegistry(registry prometheus.Registerer) *Recorder {
	factory := promauto.With(registry)
	return &Recorder{
		inferencesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hachiko_state_inferences_total",
				Help: "Total number of state inference calls by migration, resulting status, and outcome",
			},
			[]string{"migration_id", "status", "outcome"},
		),
		inferenceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hachiko_inference_duration_seconds",
				Help:    "Duration of state inference calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"migration_id"},
		),
		batchFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hachiko_batch_fallbacks_total",
				Help: "Total number of per-migration fallbacks taken during batch aggregation",
			},
			[]string{"migration_id", "fallback"},
		),
	}
}

// ObserveInference records one completed inference call.
func (r *Recorder) ObserveInference(migrationID, status string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}

	r.inferencesTotal.WithLabelValues(migrationID, status, outcome).Inc()
	r.inferenceDuration.WithLabelValues(migrationID).Observe(duration.Seconds())
}

// Batch fallback kinds.
const (
	FallbackPROnly  = "pr_only"
	FallbackDefault = "default_record"
)

// IncBatchFallback counts one degraded result during batch aggregation.
func (r *Recorder) IncBatchFallback(migrationID, fallback string) {
	r.batchFallbackTotal.WithLabelValues(migrationID, fallback).Inc()
}
