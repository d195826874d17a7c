package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tenantgate"

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Gateway metrics
	AuthAttempts    *prometheus.CounterVec
	TenantDecisions *prometheus.CounterVec
	TenantDenied    prometheus.Counter

	// Rate limiter metrics
	RateLimitRejected prometheus.Counter
	RateLimitEvicted  prometheus.Counter
	RateLimitErrors   prometheus.Counter
}

// NewRegistry creates a registry with Go runtime and process collectors
// and all tenantgate metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Credential resolutions by credential kind and outcome.",
		}, []string{"credential", "outcome"}),
		TenantDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_decisions_total",
			Help:      "Tenant resolutions by decision.",
		}, []string{"decision"}),
		TenantDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_denied_total",
			Help:      "Requests whose declared tenant the principal is not a member of.",
		}),
		RateLimitRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejected_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		RateLimitEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_evicted_total",
			Help:      "Expired rate limit entries evicted by the sweeper.",
		}),
		RateLimitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_backend_errors_total",
			Help:      "Rate limiter backend failures; the request was let through.",
		}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.AuthAttempts,
		r.TenantDecisions,
		r.TenantDenied,
		r.RateLimitRejected,
		r.RateLimitEvicted,
		r.RateLimitErrors,
	)
	return r
}

// Register adds extra collectors, such as storage statistics.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordRequest counts one HTTP request and observes its latency.
func (r *Registry) RecordRequest(method, code string, seconds float64) {
	r.RequestsTotal.WithLabelValues(method, code).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordAuth counts one credential resolution.
func (r *Registry) RecordAuth(credential, outcome string) {
	r.AuthAttempts.WithLabelValues(credential, outcome).Inc()
}

// RecordTenant counts one tenant resolution.
func (r *Registry) RecordTenant(decision string) {
	r.TenantDecisions.WithLabelValues(decision).Inc()
	if decision == "denied" {
		r.TenantDenied.Inc()
	}
}

// IncRateLimited counts one rejected request.
func (r *Registry) IncRateLimited() {
	r.RateLimitRejected.Inc()
}

// IncRateLimitError counts one limiter backend failure.
func (r *Registry) IncRateLimitError() {
	r.RateLimitErrors.Inc()
}

// AddEvicted counts entries removed by the limiter sweeper.
func (r *Registry) AddEvicted(n int) {
	r.RateLimitEvicted.Add(float64(n))
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
