// Package observability bridges the engine's lifecycle hooks to Prometheus
// collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy/pkg/domain"
)

// Metrics holds the Prometheus collectors for one engine host.
type Metrics struct {
	transitionsTotal *prometheus.CounterVec
	cascadeDepth     prometheus.Histogram
	updateDuration   prometheus.Histogram
	activeSessions   prometheus.Gauge
}

// NewMetrics creates and registers the collectors on reg.
// Use prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "transitions_total",
			Help:      "Committed state transitions, labeled by tree and target leaf.",
		}, []string{"tree", "to"}),
		cascadeDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "canopy",
			Name:      "transition_cascade_depth",
			Help:      "Transitions chained within a single commit call.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		updateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "canopy",
			Name:      "update_duration_seconds",
			Help:      "Wall time of one frame update.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "canopy",
			Name:      "active_sessions",
			Help:      "Sessions currently held by the session manager.",
		}),
	}
	reg.MustRegister(m.transitionsTotal, m.cascadeDepth, m.updateDuration, m.activeSessions)
	return m
}

// Hooks returns lifecycle hooks that record transitions. Merge them into
// the tree's hooks via domain.LifecycleHooks composition at the call site.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e *domain.TransitionEvent) {
			m.transitionsTotal.WithLabelValues(e.Tree, e.To).Inc()
			m.cascadeDepth.Observe(float64(e.Depth))
		},
	}
}

// ObserveUpdate records the wall time of one frame.
func (m *Metrics) ObserveUpdate(d time.Duration) {
	m.updateDuration.Observe(d.Seconds())
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }
