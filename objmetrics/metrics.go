// Package objmetrics implements objclient.Metrics with Prometheus
// counters, in the same counter-vector-by-name style as the pack's
// observability packages: one CounterVec registered up front, with
// Counter(name) returning a thin handle bound to that name's label.
package objmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimbusdb/objstore/internal/objclient"
)

// Metrics is a Prometheus-backed objclient.Metrics: every distinct event
// name bumped by the engine becomes a label value on one CounterVec
// rather than a separate metric, so a fresh event name never needs a
// registration change.
type Metrics struct {
	events *prometheus.CounterVec
}

// New registers an objstore_events_total CounterVec on reg and returns a
// Metrics backed by it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "objstore_events_total",
			Help: "Count of object-store engine events, labeled by event name.",
		}, []string{"event"}),
	}
	reg.MustRegister(m.events)
	return m
}

// Counter implements objclient.Metrics.
func (m *Metrics) Counter(name string) objclient.Counter {
	return eventCounter{vec: m.events, name: name}
}

type eventCounter struct {
	vec  *prometheus.CounterVec
	name string
}

// Add implements objclient.Counter. Negative deltas (only meaningful for
// the throttle-sleep-nanoseconds counter if a caller ever computed one
// incorrectly) are dropped rather than passed to Prometheus, which panics
// on them.
func (c eventCounter) Add(n int64) {
	if n < 0 {
		return
	}
	c.vec.WithLabelValues(c.name).Add(float64(n))
}

var _ objclient.Metrics = (*Metrics)(nil)
