package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/reqctx"
)

// handleContext handles GET /api/v1/context. It is the reference
// tenant-scoped endpoint: without a tenant it answers not found rather
// than leaking which tenants exist.
func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request) {
	snap := reqctx.FromContext(r.Context()).Snapshot()

	if snap.Principal == nil {
		h.log(r).DebugContext(r.Context(), "anonymous call to tenant scoped endpoint")
		h.writeError(w, r, http.StatusUnauthorized,
			domain.ErrCredentialMissing.Code, domain.ErrCredentialMissing.Message)
		return
	}
	if !snap.HasTenant() {
		h.writeError(w, r, http.StatusNotFound,
			domain.ErrTenantNotSelected.Code, domain.ErrTenantNotSelected.Message)
		return
	}

	p := snap.Principal
	h.log(r).DebugContext(r.Context(), "request context served")

	authorities := p.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	h.writeJSON(w, r, http.StatusOK, ContextResponse{
		UserID:      p.UserID,
		Email:       p.Email,
		TenantID:    snap.TenantID.String(),
		Authorities: authorities,
		Credential:  string(p.Credential),
		KeyID:       p.KeyID,
	})
}

var endpoints = []Endpoint{
	{Method: http.MethodGet, Path: "/health", Summary: "Liveness probe.", Responses: []int{200}},
	{Method: http.MethodGet, Path: "/ready", Summary: "Readiness probe; pings the stores.", Responses: []int{200, 503}},
	{Method: http.MethodGet, Path: "/metrics", Summary: "Prometheus metrics.", Responses: []int{200}},
	{
		Method:      http.MethodGet,
		Path:        "/api/v1/context",
		Summary:     "Principal and tenant established by the gateway for this call.",
		Headers:     []string{"Authorization: Bearer <jwt>", "X-API-Key: <key>", "X-Tenant-Id: <uuid>"},
		Responses:   []int{200, 401, 404, 503},
		RateLimited: true,
	},
}

// handleDocs handles GET /docs.
func (h *Handler) handleDocs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"version":   h.version,
		"endpoints": endpoints,
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}
