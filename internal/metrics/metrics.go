// Package metrics exposes Prometheus instrumentation for the verification
// pipeline and the network monitor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slotguard/internal/monitor"
)

// Metrics holds every collector on its own registry so tests can run in
// isolation from the default global one.
type Metrics struct {
	registry *prometheus.Registry

	Verifications      *prometheus.CounterVec
	VerifyDuration     prometheus.Histogram
	ConsensusResponses prometheus.Histogram
	SourceFailures     *prometheus.CounterVec
	NetworkHealth      prometheus.Gauge
	EventsDropped      prometheus.Counter
}

// New builds a metrics set on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slotguard",
		Name:      "verifications_total",
		Help:      "Verification requests by outcome.",
	}, []string{"outcome"})

	m.VerifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slotguard",
		Name:      "verify_duration_seconds",
		Help:      "End-to-end duration of a single verification.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	m.ConsensusResponses = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slotguard",
		Name:      "consensus_responses",
		Help:      "Number of sources that answered a fan-out query.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})

	m.SourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slotguard",
		Name:      "source_failures_total",
		Help:      "Failed calls per upstream source.",
	}, []string{"source"})

	m.NetworkHealth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "slotguard",
		Name:      "network_health",
		Help:      "Current network health: 0 healthy, 1 forked, 2 halted.",
	})

	m.EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slotguard",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a subscriber buffer was full.",
	})

	m.registry.MustRegister(
		m.Verifications,
		m.VerifyDuration,
		m.ConsensusResponses,
		m.SourceFailures,
		m.NetworkHealth,
		m.EventsDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveVerification records one verification outcome.
func (m *Metrics) ObserveVerification(outcome string, seconds float64, responses int) {
	m.Verifications.WithLabelValues(outcome).Inc()
	m.VerifyDuration.Observe(seconds)
	m.ConsensusResponses.Observe(float64(responses))
}

// SetNetworkHealth maps health onto the gauge.
func (m *Metrics) SetNetworkHealth(health monitor.NetworkHealth) {
	m.NetworkHealth.Set(float64(health))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
