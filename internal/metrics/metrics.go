// Package metrics exposes prometheus collectors for backend calls and
// draft saves. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	draftSaves  *prometheus.CounterVec
	uploads     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_api_requests_total",
			Help: "Backend API calls by method, resource and status code.",
		}, []string{"method", "resource", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventdesk_api_request_duration_seconds",
			Help:    "Backend API call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "resource"}),
		draftSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_draft_saves_total",
			Help: "Draft saves by document kind and outcome.",
		}, []string{"kind", "outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_uploads_total",
			Help: "File uploads by module and outcome.",
		}, []string{"module", "outcome"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.draftSaves, m.uploads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAPI records one backend call. status 0 means a transport error.
func (m *Metrics) ObserveAPI(method, resource string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, resource, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, resource).Observe(d.Seconds())
}

// DraftSaved records a draft save outcome: ok, invalid or error.
func (m *Metrics) DraftSaved(kind, outcome string) {
	if m == nil {
		return
	}
	m.draftSaves.WithLabelValues(kind, outcome).Inc()
}

// Uploaded records an upload outcome.
func (m *Metrics) Uploaded(module, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(module, outcome).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
