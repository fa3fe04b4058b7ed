package daemon

import (
	"net/http"
	"strconv"

	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// Counter for comparisons, by language and verdict
	checks *prometheus.CounterVec

	// Histogram for the number of feedback messages per failed check
	checkMessages *prometheus.HistogramVec

	// Counter for served requests
	requests *prometheus.CounterVec

	// Counter for requests refused by the rate limiter
	rateLimited prometheus.Counter

	// Counter for session lifecycle events, by type
	events *prometheus.CounterVec

	// Gauge for live sessions
	sessions prometheus.GaugeFunc
}

// NewMetrics registers the daemon collectors on reg. A nil reg gets a fresh
// registry so several servers can live in one process.
func NewMetrics(reg *prometheus.Registry, liveSessions func() float64) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codequest_checks_total",
				Help: "Total number of code checks",
			},
			[]string{"language", "matched"},
		),
		checkMessages: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codequest_check_messages",
				Help:    "Feedback messages returned by failed checks",
				Buckets: []float64{1, 2, 3, 5, 8},
			},
			[]string{"language"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codequest_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "codequest_rate_limited_total",
				Help: "Checks refused by the rate limiter",
			},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codequest_session_events_total",
				Help: "Session events by type",
			},
			[]string{"type"},
		),
	}
	if liveSessions != nil {
		m.sessions = factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "codequest_sessions_current",
				Help: "Current number of editing sessions",
			},
			liveSessions,
		)
	}
	return m
}

// ObserveCheck records one comparison
func (m *Metrics) ObserveCheck(ex *domain.Exercise, result checker.Result) {
	lang := string(ex.Language)
	m.checks.WithLabelValues(lang, strconv.FormatBool(result.Matched)).Inc()
	if !result.Matched {
		m.checkMessages.WithLabelValues(lang).Observe(float64(len(result.Messages)))
	}
}

// ObserveEvent records a session event
func (m *Metrics) ObserveEvent(e domain.Event) {
	m.events.WithLabelValues(e.EventType()).Inc()
}

// ObserveRequest records a served request
func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
