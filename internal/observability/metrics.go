package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	computeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "intelligence",
		Subsystem: "engine",
		Name:      "compute_duration_seconds",
		Help:      "Time spent computing an insight component.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"component"})
	suggestionsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intelligence",
		Subsystem: "engine",
		Name:      "suggestions_emitted_total",
		Help:      "Suggestions produced, labelled by activity type.",
	}, []string{"type"})
	conflictsDetected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intelligence",
		Subsystem: "engine",
		Name:      "conflicts_detected_total",
		Help:      "Same-day conflict warnings produced, labelled by conflict type.",
	}, []string{"type"})
	snapshotLoadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "intelligence",
		Subsystem: "persistence",
		Name:      "last_snapshot_loaded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent snapshot load from Postgres.",
	})
	activityUpsertGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "intelligence",
		Subsystem: "persistence",
		Name:      "last_activity_upserted_timestamp_seconds",
		Help:      "Date of the most recent activity written to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(computeDuration, suggestionsEmitted, conflictsDetected, snapshotLoadGauge, activityUpsertGauge)
}

// ObserveCompute records how long an engine component took.
func ObserveCompute(component string, d time.Duration) {
	computeDuration.WithLabelValues(component).Observe(d.Seconds())
}

// RecordSuggestion counts an emitted suggestion by activity type.
func RecordSuggestion(activityType string) {
	suggestionsEmitted.WithLabelValues(activityType).Inc()
}

// RecordConflict counts a detected conflict by type.
func RecordConflict(conflictType string) {
	conflictsDetected.WithLabelValues(conflictType).Inc()
}

// RecordSnapshotLoaded updates the snapshot load watermark gauge.
func RecordSnapshotLoaded(ts time.Time) {
	if ts.IsZero() {
		return
	}
	snapshotLoadGauge.Set(float64(ts.Unix()))
}

// RecordActivityUpserted updates the persistence watermark gauge.
func RecordActivityUpserted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityUpsertGauge.Set(float64(ts.Unix()))
}
