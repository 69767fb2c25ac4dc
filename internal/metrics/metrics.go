// Package metrics exposes the timers and engine activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/drive-timer/internal/logic"
)

const namespace = "drivetimer"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	elapsed       *prometheus.GaugeVec
	remaining     *prometheus.GaugeVec
	running       *prometheus.GaugeVec
	eventsTotal   *prometheus.CounterVec
	persistWrites *prometheus.CounterVec
	mqttConnected prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		elapsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "elapsed_seconds",
				Help:      "Whole seconds accumulated on each timer",
			},
			[]string{"timer"},
		),
		remaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "remaining_seconds",
				Help:      "Whole seconds left before each timer's limit",
			},
			[]string{"timer"},
		),
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "running",
				Help:      "1 while the timer is running",
			},
			[]string{"timer"},
		),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Engine events by type",
			},
			[]string{"type"},
		),
		persistWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_writes_total",
				Help:      "State record writes by result",
			},
			[]string{"result"},
		),
		mqttConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mqtt_connected",
				Help:      "1 while the broker link is up",
			},
		),
	}

	m.registry.MustRegister(
		m.elapsed,
		m.remaining,
		m.running,
		m.eventsTotal,
		m.persistWrites,
		m.mqttConnected,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Observe counts engine events.
func (m *Metrics) Observe(events []logic.Event) {
	for _, e := range events {
		m.eventsTotal.WithLabelValues(string(e.Type)).Inc()
	}
}

// SetView publishes the current timers.
func (m *Metrics) SetView(v logic.View) {
	for timer, tv := range map[logic.Timer]logic.TimerView{
		logic.TimerDrive: v.Drive,
		logic.TimerRest:  v.Rest,
	} {
		m.elapsed.WithLabelValues(string(timer)).Set(float64(tv.Elapsed))
		m.remaining.WithLabelValues(string(timer)).Set(float64(tv.Remaining))
		m.running.WithLabelValues(string(timer)).Set(boolFloat(tv.Running))
	}
}

// PersistResult counts one state write.
func (m *Metrics) PersistResult(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.persistWrites.WithLabelValues(result).Inc()
}

// SetMQTTConnected records the broker link state.
func (m *Metrics) SetMQTTConnected(connected bool) {
	m.mqttConnected.Set(boolFloat(connected))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
