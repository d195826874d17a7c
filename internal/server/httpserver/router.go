package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/tenantgate/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Gateway resolves principals and tenants for /api/ routes.
	Gateway *GatewayConfig

	// RateLimit is applied to every non-exempt route. Nil disables it.
	RateLimit *RateLimitConfig

	// MetricsHandler serves GET /metrics. Nil disables the endpoint.
	MetricsHandler http.Handler

	// Metrics receives request and gateway events.
	Metrics Metrics

	// Ready is pinged by GET /ready.
	Ready []handler.Pinger

	// Version is reported by /health and /docs.
	Version string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = none).
	CORSAllowedOrigins []string

	Logger *slog.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Order: RequestID -> Recover -> CORS -> Audit -> RateLimit -> mux.
// Routes under /api/ additionally pass through Gateway.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Version, log, cfg.Ready...)

	mux := http.NewServeMux()
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)
	mux.Handle("GET /docs", h)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	gw := cfg.Gateway
	if gw == nil {
		gw = &GatewayConfig{}
	}
	if gw.Metrics == nil {
		gw.Metrics = cfg.Metrics
	}
	if gw.Logger == nil {
		gw.Logger = log
	}
	mux.Handle("/api/", Gateway(gw)(h))

	middlewares := []Middleware{
		RequestID(),
		Recover(log),
		CORS(cfg.CORSAllowedOrigins),
		Audit(log, cfg.Metrics),
	}
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		if rl.Metrics == nil {
			rl.Metrics = cfg.Metrics
		}
		if rl.Logger == nil {
			rl.Logger = log
		}
		middlewares = append(middlewares, RateLimit(&rl))
	}

	return Chain(mux, middlewares...)
}
