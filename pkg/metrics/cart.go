package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cart sync outcomes.
const (
	SyncSuccess = "success"
	SyncFailure = "failure"
	// SyncStale marks a snapshot skipped because a newer one already reached
	// the remote table.
	SyncStale = "stale"
)

// CartMetrics tracks background cart replication and checkout outcomes.
type CartMetrics struct {
	syncs        *prometheus.CounterVec
	syncDuration prometheus.Histogram
	cacheErrors  *prometheus.CounterVec
	checkouts    *prometheus.CounterVec
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	m := &CartMetrics{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "remote_syncs_total",
			Help:      "Remote cart replace-all attempts by outcome.",
		}, []string{"outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "remote_sync_duration_seconds",
			Help:      "Time spent writing a cart snapshot to the remote table.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "local_cache_errors_total",
			Help:      "Local cart cache failures by operation.",
		}, []string{"op"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.syncs, m.syncDuration, m.cacheErrors, m.checkouts)
	return m
}

func (m *CartMetrics) ObserveSync(outcome string, took time.Duration) {
	if m == nil || m.syncs == nil {
		return
	}
	m.syncs.WithLabelValues(normalizeLabel(outcome)).Inc()
	if outcome != SyncStale {
		m.syncDuration.Observe(took.Seconds())
	}
}

func (m *CartMetrics) IncCacheError(op string) {
	if m == nil || m.cacheErrors == nil {
		return
	}
	m.cacheErrors.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCheckout counts a checkout by outcome: "success", "rejected",
// "order_failed" or "lines_failed".
func (m *CartMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}
