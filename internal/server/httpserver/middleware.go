package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/reqctx"
	"github.com/yndnr/tenantgate/internal/core/service"
	"github.com/yndnr/tenantgate/internal/telemetry/logger"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Metrics receives gateway events. *metric.Registry implements it.
type Metrics interface {
	RecordRequest(method, code string, seconds float64)
	RecordAuth(credential, outcome string)
	RecordTenant(decision string)
	IncRateLimited()
	IncRateLimitError()
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(string, string, float64) {}
func (noopMetrics) RecordAuth(string, string) {}
func (noopMetrics) RecordTenant(string) {}
func (noopMetrics) IncRateLimited() {}
func (noopMetrics) IncRateLimitError() {}

func orNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// RequestID assigns each request an ID, taken from X-Request-ID when the
// client sent one. The ID is echoed in the response and attached to every
// log record written with the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if requestID == "" || len(requestID) > 128 {
				requestID = "req-" + uuid.NewString()
			}

			w.Header().Set(HeaderRequestID, requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover recovers from panics and returns a 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
					writeError(w, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs one access record per request and records request metrics.
func Audit(log *slog.Logger, m Metrics) Middleware {
	m = orNoop(m)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			m.RecordRequest(r.Method, strconv.Itoa(wrapped.statusCode), duration.Seconds())

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"client", clientIP(r),
			}

			switch {
			case wrapped.statusCode >= 500:
				log.WarnContext(r.Context(), "request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.InfoContext(r.Context(), "request completed with client error", attrs...)
			default:
				log.DebugContext(r.Context(), "request completed", attrs...)
			}
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers. An empty list allows no
// cross-origin caller.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Tenant-Id, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "Retry-After, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultExemptPaths are never rate limited.
var DefaultExemptPaths = []string{"/health", "/ready", "/metrics", "/docs", "/swagger", "/openapi"}

// RateLimitConfig holds configuration for the RateLimit middleware.
type RateLimitConfig struct {
	Limiter service.Limiter

	// ExemptPaths are path prefixes that bypass the limiter.
	ExemptPaths []string

	Logger  *slog.Logger
	Metrics Metrics
}

// rateLimitBody is the rejection body.
type rateLimitBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit counts every non-exempt request against its client key and
// answers 503 once the key is over its limit. It runs before credential
// resolution. A limiter failure lets the request through.
func RateLimit(cfg *RateLimitConfig) Middleware {
	m := orNoop(cfg.Metrics)
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r.URL.Path, cfg.ExemptPaths) {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			decision, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				m.IncRateLimitError()
				log.ErrorContext(r.Context(), "rate limiter unavailable, allowing request",
					"client", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				m.IncRateLimited()
				secs := decision.RetryAfterSeconds()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(rateLimitBody{Error: "Rate limit exceeded", RetryAfter: secs})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isExempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// GatewayConfig holds the resolvers used by the Gateway middleware.
type GatewayConfig struct {
	// Tokens resolves bearer tokens. Nil disables bearer authentication.
	Tokens *service.TokenResolver

	// Keys resolves API keys. Nil disables API key authentication.
	Keys *service.APIKeyResolver

	Members *service.MembershipValidator

	Metrics Metrics

	// Logger is the base of the request scoped logger handed downstream.
	Logger *slog.Logger
}

// presentedCredentials returns the credentials carried by r, bearer first.
func presentedCredentials(r *http.Request) []domain.Credential {
	var creds []domain.Credential
	if c, ok := domain.BearerFromHeader(r.Header.Get(HeaderAuthorization)); ok {
		creds = append(creds, c)
	}
	if c, ok := domain.APIKeyFromHeader(r.Header.Get(HeaderAPIKey)); ok {
		creds = append(creds, c)
	}
	return creds
}

// Gateway establishes the request context: the principal resolved from the
// request credential and, when permitted, the tenant. Authentication
// failures never end the request; downstream handlers decide what an
// anonymous or tenantless call may do. The context is cleared when the
// handler returns, including by panic.
//
// Downstream code finds a logger carrying user_id and tenant_id through
// logger.FromContext.
func Gateway(cfg *GatewayConfig) Middleware {
	m := orNoop(cfg.Metrics)
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, rc, release := reqctx.Begin(r.Context())
			defer release()

			var principal *domain.ResolvedPrincipal
			for _, cred := range presentedCredentials(r) {
				var outcome service.Outcome
				switch {
				case cred.Kind == domain.CredentialBearer && cfg.Tokens != nil:
					principal, outcome = cfg.Tokens.ResolveCredential(ctx, cred)
				case cred.Kind == domain.CredentialAPIKey && cfg.Keys != nil:
					principal, outcome = cfg.Keys.ResolveCredential(ctx, cred, principal)
				default:
					continue
				}
				if outcome != service.OutcomeAbsent {
					m.RecordAuth(string(cred.Kind), string(outcome))
				}
			}

			log := base
			if principal != nil {
				rc.SetPrincipal(principal)
				log = log.With("user_id", principal.UserID, "credential", string(principal.Credential))
				if cfg.Members != nil {
					tenantID, decision := cfg.Members.ResolveTenant(ctx, principal, r.Header.Get(HeaderTenantID))
					m.RecordTenant(string(decision))
					if decision.Granted() {
						rc.SetTenant(tenantID)
						log = log.With("tenant_id", tenantID.String())
					}
				}
			}
			ctx = logger.WithLogger(ctx, log)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeError writes a JSON error body with an X-Error-Code header.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
