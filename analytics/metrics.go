// Package analytics aggregates awarded points events.
package analytics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"acrossfc/core"
)

// Metrics exports award, evaluation, and sync counters to Prometheus.
type Metrics struct {
	registry    *prometheus.Registry
	points      *prometheus.CounterVec
	events      *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	syncs       *prometheus.CounterVec
	syncClears  prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry. An empty namespace
// defaults to "acrossfc".
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "acrossfc"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points awarded by category.",
		}, []string{"category"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_events_total",
			Help:      "Points events awarded by category.",
		}, []string{"category"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Submission evaluations by outcome.",
		}, []string{"outcome"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fflogs_syncs_total",
			Help:      "FFLogs roster and clears syncs by result.",
		}, []string{"result"}),
		syncClears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fflogs_clears_added_total",
			Help:      "New clears stored by FFLogs syncs.",
		}),
	}
	m.registry.MustRegister(m.points, m.events, m.evaluations, m.syncs, m.syncClears)
	return m
}

func (m *Metrics) OnEvent(_ context.Context, ev core.PointsEvent) {
	m.points.WithLabelValues(string(ev.Category)).Add(float64(ev.Points))
	m.events.WithLabelValues(string(ev.Category)).Inc()
}

// ObserveEvaluation implements engine.Observer.
func (m *Metrics) ObserveEvaluation(outcome string) {
	m.evaluations.WithLabelValues(outcome).Inc()
}

// SyncObserved records a sync run; clearsAdded is ignored on failure.
func (m *Metrics) SyncObserved(clearsAdded int, err error) {
	if err != nil {
		m.syncs.WithLabelValues("error").Inc()
		return
	}
	m.syncs.WithLabelValues("ok").Inc()
	m.syncClears.Add(float64(clearsAdded))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
