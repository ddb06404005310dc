// Package obs holds the service's Prometheus instrumentation.
package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the service counters. All methods are safe on a nil
// receiver so callers can run uninstrumented.
type Metrics struct {
	registry         *prometheus.Registry
	upstreamRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	scrapeDuration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	upstreamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shoezone_upstream_requests_total",
		Help: "Requests issued against the retail site",
	}, []string{"path", "outcome"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shoezone_cache_lookups_total",
		Help: "Cache lookups by domain and result",
	}, []string{"domain", "result"})

	scrapeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shoezone_scrape_duration_seconds",
		Help:    "Time spent fetching and parsing a product page",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(upstreamRequests, cacheLookups, scrapeDuration)

	return &Metrics{
		registry:         registry,
		upstreamRequests: upstreamRequests,
		cacheLookups:     cacheLookups,
		scrapeDuration:   scrapeDuration,
	}
}

// Handler exposes the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) UpstreamRequest(path, outcome string) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) CacheHit(domain string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(domain, "hit").Inc()
}

func (m *Metrics) CacheMiss(domain string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(domain, "miss").Inc()
}

func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.scrapeDuration.Observe(d.Seconds())
}
