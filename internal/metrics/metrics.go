// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RegistrationsSubmitted *prometheus.CounterVec
	AccessDecisions        *prometheus.CounterVec
	CompensationFailures   prometheus.Counter
	IncidentDecisions      *prometheus.CounterVec
	StatsRefreshes         *prometheus.CounterVec
	StatsRefreshDuration   prometheus.Histogram
	StatsSubscribers       prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "registrations_submitted_total",
			Help:      "Registrations created, by kind.",
		}, []string{"kind"}),
		AccessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "access_request_decisions_total",
			Help:      "Access request outcomes.",
		}, []string{"outcome"}),
		CompensationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "provisioning_compensation_failures_total",
			Help:      "Rollback steps that failed while undoing a partial account provisioning.",
		}),
		IncidentDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "incident_decisions_total",
			Help:      "Incident report review outcomes.",
		}, []string{"outcome"}),
		StatsRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "stats_refreshes_total",
			Help:      "Stats recomputations, by result.",
		}, []string{"result"}),
		StatsRefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "registry",
			Name:      "stats_refresh_duration_seconds",
			Help:      "Duration of a full stats recomputation.",
			Buckets:   prometheus.DefBuckets,
		}),
		StatsSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "registry",
			Name:      "stats_stream_clients",
			Help:      "Connected live stats websocket clients.",
		}),
	}
}

// Noop returns collectors registered nowhere, for tests and tools.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}
