package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

func newTestTokenResolver() (*TokenResolver, *syncBuffer) {
	v := &mockValidator{tokens: map[string]*TokenClaims{
		"good": {
			Subject:     "user-42",
			Email:       "ada@example.com",
			Authorities: []string{"SCOPE_contracts:read"},
			ExpiresAt:   time.Now().Add(time.Hour),
		},
		"expired": {
			Subject:   "user-42",
			ExpiresAt: time.Now().Add(-time.Minute),
		},
		"no-subject": {
			Email: "ghost@example.com",
		},
	}}
	logger, buf := bufferLogger()
	return NewTokenResolver(v, logger), buf
}

func TestTokenResolver_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		outcome Outcome
		user    string
		logs    string
	}{
		{"valid token", "Bearer good", OutcomeAuthenticated, "user-42", ""},
		{"no header", "", OutcomeAbsent, "", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz", OutcomeAbsent, "", ""},
		{"lower case scheme", "bearer good", OutcomeAbsent, "", ""},
		{"empty token", "Bearer   ", OutcomeRejected, "", "empty token"},
		{"bad signature", "Bearer forged", OutcomeRejected, "", "signature is invalid"},
		{"expired token", "Bearer expired", OutcomeRejected, "", "expired"},
		{"missing subject", "Bearer no-subject", OutcomeRejected, "", "missing subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, logs := newTestTokenResolver()

			p, outcome := r.Resolve(context.Background(), tt.header)
			if outcome != tt.outcome {
				t.Fatalf("Resolve(%q) outcome = %s, want %s", tt.header, outcome, tt.outcome)
			}

			if tt.user == "" {
				if p != nil {
					t.Errorf("Resolve(%q) principal = %+v, want nil", tt.header, p)
				}
			} else if p == nil || p.UserID != tt.user {
				t.Fatalf("Resolve(%q) principal = %+v, want user %s", tt.header, p, tt.user)
			}

			if tt.logs != "" && !strings.Contains(logs.String(), tt.logs) {
				t.Errorf("log output %q should mention %q", logs.String(), tt.logs)
			}
			if tt.outcome == OutcomeRejected && !strings.Contains(logs.String(), `"level":"WARN"`) {
				t.Error("rejection should be logged at warning level")
			}
		})
	}
}

func TestTokenResolver_PrincipalFields(t *testing.T) {
	r, _ := newTestTokenResolver()

	p, _ := r.Resolve(context.Background(), "Bearer good")
	if p.Email != "ada@example.com" {
		t.Errorf("Email = %q, want ada@example.com", p.Email)
	}
	if p.Credential != domain.CredentialBearer {
		t.Errorf("Credential = %s, want bearer", p.Credential)
	}
	if !p.HasAuthority("SCOPE_contracts:read") {
		t.Errorf("Authorities = %v, want SCOPE_contracts:read", p.Authorities)
	}
	if _, ok := p.TrustedTenant(); ok {
		t.Error("bearer principals must not carry a trusted tenant")
	}
}

func TestTokenResolver_NeverLogsToken(t *testing.T) {
	r, logs := newTestTokenResolver()

	r.Resolve(context.Background(), "Bearer forged-secret-material")

	if strings.Contains(logs.String(), "forged-secret-material") {
		t.Errorf("raw token leaked into logs: %s", logs.String())
	}
}

func TestTokenResolver_ResolveCredential(t *testing.T) {
	r, _ := newTestTokenResolver()

	p, outcome := r.ResolveCredential(context.Background(), domain.BearerCredential("good"))
	if outcome != OutcomeAuthenticated || p == nil || p.UserID != "user-42" {
		t.Errorf("ResolveCredential(bearer) = (%+v, %s), want user-42 authenticated", p, outcome)
	}

	p, outcome = r.ResolveCredential(context.Background(), domain.APIKeyCredential("good"))
	if p != nil || outcome != OutcomeAbsent {
		t.Errorf("ResolveCredential(api key) = (%+v, %s), want (nil, absent)", p, outcome)
	}
}
