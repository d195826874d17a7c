package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yndnr/tenantgate/internal/telemetry/logger"
)

// Pinger reports whether a backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler routes the endpoints served behind the gateway.
type Handler struct {
	ready   []Pinger
	version string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Handler. Each Pinger in ready must succeed for /ready to
// answer 200.
func New(version string, log *slog.Logger, ready ...Pinger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		ready:   ready,
		version: version,
		logger:  log,
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /docs", h.handleDocs)
	h.mux.HandleFunc("GET /api/v1/context", h.handleContext)
}

// log returns the request scoped logger set by the gateway, if any.
func (h *Handler) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), h.logger)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.log(r).ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := logger.RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, nil))
}
