// Package metrics defines the Prometheus collectors of the filter service and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SyncRunsTotal        *prometheus.CounterVec
	SyncDuration         prometheus.Histogram
	SyncOptionsCreated   prometheus.Counter
	SyncSkippedEntries   prometheus.Counter
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	MetadataCacheTotal   *prometheus.CounterVec
	ProductEventsTotal   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh private registry, which keeps tests from colliding on the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SyncRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filter_sync_runs_total",
				Help: "Facet synchronization runs by scope (full, product) and status.",
			},
			[]string{"scope", "status"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "filter_sync_duration_seconds",
				Help:    "Duration of full facet synchronization runs.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		SyncOptionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filter_sync_options_created_total",
				Help: "Filter options inserted by synchronization.",
			},
		),
		SyncSkippedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filter_sync_skipped_entries_total",
				Help: "Malformed spec entries skipped by synchronization.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_search_queries_total",
				Help: "Faceted product searches by result type (hit, zero_result, invalid, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "product_search_latency_seconds",
				Help:    "Faceted product search latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		MetadataCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filter_metadata_cache_total",
				Help: "Filter metadata cache lookups by outcome (hit, miss).",
			},
			[]string{"outcome"},
		),
		ProductEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_events_total",
				Help: "Product change events by direction (published, consumed) and status.",
			},
			[]string{"direction", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SyncRunsTotal,
		m.SyncDuration,
		m.SyncOptionsCreated,
		m.SyncSkippedEntries,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.MetadataCacheTotal,
		m.ProductEventsTotal,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler returns the Prometheus scrape HTTP handler for the registry the
// collectors were registered on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
