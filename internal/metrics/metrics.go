package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "entrabridge"

// Lookup results recorded by the credential cache.
const (
	LookupHit     = "hit"
	LookupMiss    = "miss"
	LookupExpired = "expired"
)

// Store results recorded by the credential cache.
const (
	StoreOK            = "ok"
	StoreIdentityError = "identity_error"
)

var upstreamBuckets = []float64{
	0.05, 0.1, 0.25, // fast first byte
	0.5, 1, 2.5, // normal
	5, 10, 30, // slow or timing out
}

// Cache holds the collectors updated by the credential cache.
// A nil *Cache is valid and records nothing.
type Cache struct {
	entries prometheus.Gauge
	stores  *prometheus.CounterVec
	lookups *prometheus.CounterVec
	swept   prometheus.Counter
}

// SetEntries records the current number of cached credentials.
func (c *Cache) SetEntries(n int) {
	if c == nil {
		return
	}
	c.entries.Set(float64(n))
}

// ObserveStore counts a store attempt with the given result.
func (c *Cache) ObserveStore(result string) {
	if c == nil {
		return
	}
	c.stores.WithLabelValues(result).Inc()
}

// ObserveLookup counts a lookup with the given result.
func (c *Cache) ObserveLookup(result string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(result).Inc()
}

// ObserveSwept counts entries removed by a periodic sweep.
func (c *Cache) ObserveSwept(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.swept.Add(float64(n))
}

// Registry owns a private prometheus registry and every collector the relay exports.
type Registry struct {
	registry *prometheus.Registry

	Cache *Cache

	httpRequests     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the relay collectors plus the Go runtime
// and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		Cache: &Cache{
			entries: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "credential_cache_entries",
				Help:      "Number of secondary credentials currently held in memory",
			}),
			stores: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_cache_stores_total",
				Help:      "Credential store attempts by result",
			}, []string{"result"}),
			lookups: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_cache_lookups_total",
				Help:      "Credential lookups by result",
			}, []string{"result"}),
			swept: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_cache_swept_total",
				Help:      "Expired credentials removed by the periodic sweep",
			}),
		},
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by route and status code",
		}, []string{"route", "code"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Time until the chat completion endpoint answered",
			Buckets:   upstreamBuckets,
		}, []string{"outcome"}),
	}
}

// ObserveHTTPRequest counts one handled request. A nil registry records nothing.
func (r *Registry) ObserveHTTPRequest(route, code string) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, code).Inc()
}

// ObserveUpstream records how long the completion endpoint took to answer.
func (r *Registry) ObserveUpstream(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.upstreamDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry for tests and embedding.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
