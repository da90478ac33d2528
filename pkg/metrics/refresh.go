package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RefreshMetrics records room refresh passes driven by the poller.
type RefreshMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	stale    *prometheus.CounterVec
}

// NewRefreshMetrics registers the refresh metrics on the provided registerer.
func NewRefreshMetrics(reg prometheus.Registerer) *RefreshMetrics {
	if reg == nil {
		return &RefreshMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "room_refresh_duration_seconds",
		Help:    "Duration of room refresh passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_refresh_success",
		Help: "Successful room refresh passes.",
	}, []string{"kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_refresh_failure",
		Help: "Failed room refresh passes.",
	}, []string{"kind"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_refresh_skipped_ticks",
		Help: "Poll ticks skipped because a refresh was still in flight.",
	}, []string{"kind"})
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_refresh_stale_discarded",
		Help: "Refresh results discarded because a newer pass was requested.",
	}, []string{"kind"})
	reg.MustRegister(duration, success, failure, skipped, stale)
	return &RefreshMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skipped:  skipped,
		stale:    stale,
	}
}

// ObserveDuration records the duration for the named refresh kind.
func (r *RefreshMetrics) ObserveDuration(kind string, duration time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named refresh kind.
func (r *RefreshMetrics) IncSuccess(kind string) {
	if r == nil || r.success == nil {
		return
	}
	r.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailure increments the failure counter for the named refresh kind.
func (r *RefreshMetrics) IncFailure(kind string) {
	if r == nil || r.failure == nil {
		return
	}
	r.failure.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncSkipped increments the skipped-tick counter for the named refresh kind.
func (r *RefreshMetrics) IncSkipped(kind string) {
	if r == nil || r.skipped == nil {
		return
	}
	r.skipped.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncStale increments the stale-result counter for the named refresh kind.
func (r *RefreshMetrics) IncStale(kind string) {
	if r == nil || r.stale == nil {
		return
	}
	r.stale.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}
