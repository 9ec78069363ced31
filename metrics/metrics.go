// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Audit outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCached    = "cached"
)

// Metrics holds every collector of the service.
type Metrics struct {
	auditsTotal   *prometheus.CounterVec
	auditDuration prometheus.Histogram
	auditScore    prometheus.Histogram
	fetchErrors   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(namespace, reg, reg)
}

// NewWithRegistry registers the collectors on registerer and serves them from
// gatherer.
func NewWithRegistry(namespace string, registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{gatherer: gatherer}

	m.auditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "total",
			Help:      "Total number of page audits by outcome",
		},
		[]string{"outcome"},
	)

	m.auditDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "duration_seconds",
			Help:      "Time taken to fetch and audit a page",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.auditScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "score",
			Help:      "Overall scores of completed audits",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)

	m.fetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of page fetch failures by kind",
		},
		[]string{"kind"},
	)

	m.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of report cache hits",
		},
	)

	m.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of report cache misses",
		},
	)

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken to serve HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	registerer.MustRegister(
		m.auditsTotal,
		m.auditDuration,
		m.auditScore,
		m.fetchErrors,
		m.cacheHits,
		m.cacheMisses,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// RecordAudit records a completed audit and its score.
func (m *Metrics) RecordAudit(duration time.Duration, score int) {
	if m == nil {
		return
	}
	m.auditsTotal.WithLabelValues(OutcomeCompleted).Inc()
	m.auditDuration.Observe(duration.Seconds())
	m.auditScore.Observe(float64(score))
}

// RecordFetchError records a failed audit caused by a fetch error of kind.
func (m *Metrics) RecordFetchError(kind string) {
	if m == nil {
		return
	}
	m.auditsTotal.WithLabelValues(OutcomeFailed).Inc()
	m.fetchErrors.WithLabelValues(kind).Inc()
}

// RecordCacheHit records an audit served from the cache.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.auditsTotal.WithLabelValues(OutcomeCached).Inc()
	m.cacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
