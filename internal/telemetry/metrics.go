// Package telemetry exposes Prometheus metrics for the chat relay.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for chatrelay_requests_total.
const (
	OutcomeSuccess          = "success"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeServerError      = "server_error"
	OutcomeMethodNotAllowed = "method_not_allowed"
)

// Metrics contains the relay's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	preflights       prometheus.Counter
	upstreamDuration *prometheus.HistogramVec
}

// NewMetrics registers collectors on registry.
// If registry is nil a fresh one is created.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatrelay_requests_total",
				Help: "Total chat requests by outcome",
			},
			[]string{"outcome"},
		),
		preflights: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chatrelay_preflight_requests_total",
				Help: "Total CORS pre-flight requests answered",
			},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "chatrelay_upstream_request_duration_seconds",
				Help: "Duration of upstream chat-completion calls",
				// LLM latencies: 100ms to 60s
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(m.requests, m.preflights, m.upstreamDuration)
	return m
}

// RecordRequest counts one chat request with the given outcome.
func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// Requests returns the counter for one outcome. A nil *Metrics returns a
// detached counter that stays at zero.
func (m *Metrics) Requests(outcome string) prometheus.Counter {
	if m == nil {
		return detachedCounter()
	}
	return m.requests.WithLabelValues(outcome)
}

// RecordPreflight counts one answered OPTIONS request.
func (m *Metrics) RecordPreflight() {
	if m == nil {
		return
	}
	m.preflights.Inc()
}

// Preflights returns the pre-flight counter. A nil *Metrics returns a
// detached counter that stays at zero.
func (m *Metrics) Preflights() prometheus.Counter {
	if m == nil {
		return detachedCounter()
	}
	return m.preflights
}

// detachedCounter is registered nowhere.
func detachedCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "chatrelay_unregistered_total"})
}

// ObserveUpstream records the duration of an upstream call.
// status 0 means the call failed before a response arrived.
func (m *Metrics) ObserveUpstream(status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamDuration.WithLabelValues(label).Observe(d.Seconds())
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
