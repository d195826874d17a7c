// Package domain defines the core domain models for tenantgate.
package domain

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// CredentialKind identifies the scheme a credential was presented with.
type CredentialKind string

const (
	// CredentialBearer is an "Authorization: Bearer" token.
	CredentialBearer CredentialKind = "bearer"

	// CredentialAPIKey is an "X-API-Key" value.
	CredentialAPIKey CredentialKind = "api_key"
)

// BearerPrefix is the literal, case-sensitive scheme prefix of a bearer
// Authorization header.
const BearerPrefix = "Bearer "

// Credential is what a request presented. It lives for one request only and
// is never persisted.
type Credential struct {
	Kind CredentialKind
	Raw  string
}

// BearerCredential wraps a raw bearer token body.
func BearerCredential(raw string) Credential {
	return Credential{Kind: CredentialBearer, Raw: raw}
}

// APIKeyCredential wraps a raw API key.
func APIKeyCredential(raw string) Credential {
	return Credential{Kind: CredentialAPIKey, Raw: raw}
}

// BearerFromHeader extracts the bearer credential from an Authorization
// header value. ok is false when the header does not use the Bearer scheme.
func BearerFromHeader(authorization string) (c Credential, ok bool) {
	raw, ok := strings.CutPrefix(authorization, BearerPrefix)
	if !ok {
		return Credential{}, false
	}
	return BearerCredential(strings.TrimSpace(raw)), true
}

// APIKeyFromHeader wraps an X-API-Key header value. ok is false when the
// header is blank.
func APIKeyFromHeader(value string) (c Credential, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Credential{}, false
	}
	return APIKeyCredential(value), true
}

// String never includes the raw value.
func (c Credential) String() string {
	return string(c.Kind) + "(***)"
}

// LogValue keeps raw credentials out of structured logs.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// ResolvedPrincipal is the identity a credential resolved to.
type ResolvedPrincipal struct {
	UserID      string
	Email       string
	Authorities []string

	// Credential records which resolver produced the principal.
	Credential CredentialKind

	// KeyID and TenantID are set for API key principals only. TenantID is
	// trusted without a membership lookup.
	KeyID    string
	TenantID uuid.UUID
}

// TrustedTenant returns the tenant bound to the credential itself, if any.
func (p *ResolvedPrincipal) TrustedTenant() (uuid.UUID, bool) {
	if p == nil || p.Credential != CredentialAPIKey || p.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.TenantID, true
}

// HasAuthority reports whether the principal carries the given authority.
func (p *ResolvedPrincipal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Authorities, authority)
}

// Clone returns a deep copy.
func (p *ResolvedPrincipal) Clone() *ResolvedPrincipal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Authorities = slices.Clone(p.Authorities)
	return &clone
}
