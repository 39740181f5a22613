// Package metrics provides Prometheus metrics for the SkillSwap service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) { m.runtime = true }
}

// Manager owns a registry and every metric the service records.  A nil
// *Manager is valid and records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	runtime   bool
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	bookings            *prometheus.CounterVec
	authFailures        *prometheus.CounterVec
	sessionChanges      *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	queueMessages       *prometheus.CounterVec
}

// New builds a Manager on its own registry.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: "skillswap",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
	m.bookings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "booking_attempts_total",
		Help:      "Booking attempts by outcome (submitted, awaiting_auth, failed, invalid).",
	}, []string{"outcome"})
	m.authFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "auth_failures_total",
		Help:      "Failed auth operations by operation and provider code.",
	}, []string{"op", "code"})
	m.sessionChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "session_changes_total",
		Help:      "Session transitions reported by the identity provider.",
	}, []string{"kind"})
	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "response_cache_lookups_total",
		Help:      "Response cache lookups by result.",
	}, []string{"result"})
	m.queueMessages = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "queue_messages_total",
		Help:      "Consumed broker messages by queue and result.",
	}, []string{"queue", "result"})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(seconds)
}

func (m *Manager) BookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Manager) AuthFailure(op, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "local"
	}
	m.authFailures.WithLabelValues(op, code).Inc()
}

func (m *Manager) SessionChange(kind string) {
	if m == nil {
		return
	}
	m.sessionChanges.WithLabelValues(kind).Inc()
}

func (m *Manager) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Manager) QueueMessage(queue string, err error) {
	if m == nil {
		return
	}
	result := "ack"
	if err != nil {
		result = "nack"
	}
	m.queueMessages.WithLabelValues(queue, result).Inc()
}
