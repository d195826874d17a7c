package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/reqctx"
	"github.com/yndnr/tenantgate/internal/telemetry/logger"
)

var tenantAcme = uuid.MustParse("6f1c1d52-2b9e-4f0e-9a39-0c4f4f7a1d10")

type envelope struct {
	Code      string          `json:"code"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return env
}

// serve runs one request through h with a request context populated by
// setup, the way the gateway would.
func serve(h http.Handler, path string, setup func(rc *reqctx.RequestContext)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx, rc, release := reqctx.Begin(logger.WithRequestID(req.Context(), "req-1"))
	defer release()
	if setup != nil {
		setup(rc)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestHealth(t *testing.T) {
	h := New("v1.2.3", nil)
	rec := serve(h, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decode(t, rec)
	if env.RequestID != "req-1" {
		t.Errorf("request_id = %q, want req-1", env.RequestID)
	}
	var body HealthResponse
	_ = json.Unmarshal(env.Data, &body)
	if body.Status != "healthy" || body.Version != "v1.2.3" {
		t.Errorf("health body = %+v", body)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		ready  []Pinger
		status int
	}{
		{"no stores", nil, http.StatusOK},
		{"store up", []Pinger{PingFunc(func(context.Context) error { return nil })}, http.StatusOK},
		{"store down", []Pinger{
			PingFunc(func(context.Context) error { return nil }),
			PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(New("dev", nil, tt.ready...), "/ready", nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestContext(t *testing.T) {
	bearer := &domain.ResolvedPrincipal{
		UserID:      "user-42",
		Email:       "ada@example.com",
		Authorities: []string{"SCOPE_read"},
		Credential:  domain.CredentialBearer,
	}

	tests := []struct {
		name     string
		setup    func(rc *reqctx.RequestContext)
		status   int
		wantCode string
	}{
		{"anonymous", nil, http.StatusUnauthorized, domain.ErrCredentialMissing.Code},
		{"no tenant", func(rc *reqctx.RequestContext) {
			rc.SetPrincipal(bearer)
		}, http.StatusNotFound, domain.ErrTenantNotSelected.Code},
		{"tenant set", func(rc *reqctx.RequestContext) {
			rc.SetPrincipal(bearer)
			rc.SetTenant(tenantAcme)
		}, http.StatusOK, "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(New("dev", nil), "/api/v1/context", tt.setup)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			env := decode(t, rec)
			if env.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Code, tt.wantCode)
			}
			if tt.status != http.StatusOK {
				if got := rec.Header().Get("X-Error-Code"); got != tt.wantCode {
					t.Errorf("X-Error-Code = %q, want %q", got, tt.wantCode)
				}
				return
			}

			var body ContextResponse
			if err := json.Unmarshal(env.Data, &body); err != nil {
				t.Fatal(err)
			}
			if body.UserID != "user-42" || body.TenantID != tenantAcme.String() || body.Credential != "bearer" {
				t.Errorf("context body = %+v", body)
			}
			if len(body.Authorities) != 1 || body.Authorities[0] != "SCOPE_read" {
				t.Errorf("authorities = %v, want [SCOPE_read]", body.Authorities)
			}
		})
	}
}

func TestContext_WithoutGateway(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/context", nil)
	rec := httptest.NewRecorder()
	New("dev", nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDocs(t *testing.T) {
	rec := serve(New("dev", nil), "/docs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Endpoints []Endpoint `json:"endpoints"`
	}
	_ = json.Unmarshal(decode(t, rec).Data, &body)
	if len(body.Endpoints) != len(endpoints) {
		t.Errorf("endpoints = %d, want %d", len(body.Endpoints), len(endpoints))
	}
}
