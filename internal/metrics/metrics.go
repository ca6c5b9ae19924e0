// Package metrics exposes Prometheus collectors for domain actions.
//
// Collectors live on a private registry rather than the global default, so
// tests can build as many Metrics values as they like without duplicate
// registration panics. Every method is safe on a nil *Metrics, which lets
// services run without metrics in unit tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	actions       *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	enhancements  *prometheus.CounterVec
	dropped       prometheus.Counter
	subscribers   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meydan_actions_total",
			Help: "Domain actions applied, by action",
		}, []string{"action"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meydan_confirmations_total",
			Help: "Resolved confirmations, by kind and outcome",
		}, []string{"kind", "outcome"}),
		enhancements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meydan_enhance_total",
			Help: "Text enhancement calls, by outcome",
		}, []string{"outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meydan_realtime_dropped_total",
			Help: "Realtime events dropped because a subscriber fell behind",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meydan_realtime_subscribers",
			Help: "Connected realtime subscribers",
		}),
	}
	reg.MustRegister(
		m.actions, m.confirmations, m.enhancements, m.dropped, m.subscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Action(name string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(name).Inc()
}

func (m *Metrics) Confirmation(kind, outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Enhancement(outcome string) {
	if m == nil {
		return
	}
	m.enhancements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) Subscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}
