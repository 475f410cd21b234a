// Package metrics exposes Prometheus counters for scheduling and attendance.
//
// All methods are safe on a nil *Metrics, which is what tests and the CLI use.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "comando"

// Metrics holds the registered collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	generations *prometheus.CounterVec
	overrides   *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	presence    *prometheus.CounterVec
	streams     *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry, plus the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWith(reg, reg)
}

// NewWith registers the collectors on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_generations_total",
			Help:      "Schedule months generated, by mode (generate, regenerate) and seed kind.",
		}, []string{"mode", "seed"}),
		overrides: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_overrides_total",
			Help:      "Manual schedule overrides applied, by kind.",
		}, []string{"kind"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Optimistic version conflicts, by operation and outcome (retried, exhausted).",
		}, []string{"op", "outcome"}),
		presence: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_writes_total",
			Help:      "Attendance cell writes, by resulting state.",
		}, []string{"present"}),
		streams: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_streams",
			Help:      "Open server-sent event streams, by resource.",
		}, []string{"resource"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Generated counts a month written by generate or regenerate.
func (m *Metrics) Generated(mode, seed string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(mode, seed).Inc()
}

// Override counts an applied override.
func (m *Metrics) Override(kind string) {
	if m == nil {
		return
	}
	m.overrides.WithLabelValues(kind).Inc()
}

// Conflict counts a version conflict. exhausted is true when the retry
// budget ran out.
func (m *Metrics) Conflict(op string, exhausted bool) {
	if m == nil {
		return
	}
	outcome := "retried"
	if exhausted {
		outcome = "exhausted"
	}
	m.conflicts.WithLabelValues(op, outcome).Inc()
}

// Presence counts an attendance write.
func (m *Metrics) Presence(present bool) {
	if m == nil {
		return
	}
	v := "false"
	if present {
		v = "true"
	}
	m.presence.WithLabelValues(v).Inc()
}

// StreamOpened tracks a live stream; call the returned func when it closes.
func (m *Metrics) StreamOpened(resource string) func() {
	if m == nil {
		return func() {}
	}
	g := m.streams.WithLabelValues(resource)
	g.Inc()
	return g.Dec
}
