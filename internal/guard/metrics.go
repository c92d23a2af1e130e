package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type refreshResult string

const (
	refreshOK         refreshResult = "ok"
	refreshSuperseded refreshResult = "superseded"
	refreshNoToken    refreshResult = "no_refresh_token"
	refreshRejected   refreshResult = "rejected"
	refreshStoreError refreshResult = "store_error"
)

// Metrics holds the guard's Prometheus collectors.
type Metrics struct {
	decisions      *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	refreshLatency prometheus.Histogram
}

// NewMetrics registers the guard collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdaportal",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Session guard decisions by outcome and cause.",
		}, []string{"outcome", "cause"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdaportal",
			Subsystem: "guard",
			Name:      "refreshes_total",
			Help:      "Access token refresh attempts by result.",
		}, []string{"result"}),
		refreshLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sdaportal",
			Subsystem: "guard",
			Name:      "refresh_duration_seconds",
			Help:      "Latency of calls to the auth backend refresh endpoint.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeDecision(d Decision) {
	m.decisions.WithLabelValues(d.Outcome.String(), d.cause.String()).Inc()
}

func (m *Metrics) observeRefresh(r refreshResult) {
	m.refreshes.WithLabelValues(string(r)).Inc()
}
