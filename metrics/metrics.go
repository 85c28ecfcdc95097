// Package metrics defines the Prometheus instrumentation for the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. All collectors are
// registered on their own registry so tests can build isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// SearchDuration observes the latency of SearXNG search calls.
	SearchDuration prometheus.Histogram

	// BrowseTotal counts browse calls by outcome.
	BrowseTotal *prometheus.CounterVec

	// PolicyDenials counts host policy denials by reason.
	PolicyDenials *prometheus.CounterVec

	// BrowseBytes observes how many body bytes each browse call read.
	BrowseBytes prometheus.Histogram
}

// New creates and registers the server metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "searxng_mcp_search_duration_seconds",
			Help:    "Latency of SearXNG search requests.",
			Buckets: prometheus.DefBuckets,
		}),
		BrowseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "searxng_mcp_browse_total",
			Help: "Browse calls by outcome.",
		}, []string{"outcome"}),
		PolicyDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "searxng_mcp_policy_denials_total",
			Help: "Host policy denials by reason.",
		}, []string{"reason"}),
		BrowseBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "searxng_mcp_browse_bytes_read",
			Help:    "Body bytes read per browse call.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome labels for BrowseTotal.
const (
	OutcomeOK     = "ok"
	OutcomeDenied = "denied"
	OutcomeError  = "error"
)
