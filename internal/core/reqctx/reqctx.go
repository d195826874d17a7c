// Package reqctx holds the identity established for one in-flight request.
//
// A RequestContext is created per request by Begin, carried on the request's
// context.Context, and cleared by the release function Begin returns. It is
// never shared between requests and never stored in package state, so it is
// safe under any goroutine scheduling.
package reqctx

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

type contextKey struct{}

// RequestContext is the resolved tenant and user of a single request.
// The zero value is empty and ready to use.
type RequestContext struct {
	mu        sync.RWMutex
	principal *domain.ResolvedPrincipal
	tenantID  uuid.UUID
}

// Snapshot is an immutable copy of a RequestContext.
type Snapshot struct {
	UserID    string
	TenantID  uuid.UUID
	Principal *domain.ResolvedPrincipal
}

// HasTenant reports whether the snapshot carries a tenant.
func (s Snapshot) HasTenant() bool {
	return s.TenantID != uuid.Nil
}

// Begin attaches a fresh, empty RequestContext to ctx. The returned release
// function clears it and must run when the request ends; call it with defer
// so that it also runs on panic and cancellation. Release is idempotent.
func Begin(ctx context.Context) (context.Context, *RequestContext, func()) {
	rc := &RequestContext{}
	var once sync.Once
	release := func() {
		once.Do(rc.clear)
	}
	return context.WithValue(ctx, contextKey{}, rc), rc, release
}

// FromContext returns the RequestContext attached by Begin, or nil.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rc
}

// TenantFromContext returns the validated tenant of the request, if any.
func TenantFromContext(ctx context.Context) (uuid.UUID, bool) {
	return FromContext(ctx).TenantID()
}

// UserFromContext returns the resolved user of the request, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	return FromContext(ctx).UserID()
}

// PrincipalFromContext returns a copy of the resolved principal, or nil.
func PrincipalFromContext(ctx context.Context) *domain.ResolvedPrincipal {
	return FromContext(ctx).Principal()
}

// SetPrincipal records the resolved principal; its user id becomes the
// request's user id.
func (rc *RequestContext) SetPrincipal(p *domain.ResolvedPrincipal) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.principal = p.Clone()
}

// SetTenant records a tenant that has already been validated, either by a
// membership lookup or because the credential is bound to it. It is a no-op
// when no principal has been set.
func (rc *RequestContext) SetTenant(tenantID uuid.UUID) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.principal == nil || tenantID == uuid.Nil {
		return false
	}
	rc.tenantID = tenantID
	return true
}

// TenantID returns the validated tenant, if any.
func (rc *RequestContext) TenantID() (uuid.UUID, bool) {
	if rc == nil {
		return uuid.Nil, false
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.tenantID, rc.tenantID != uuid.Nil
}

// UserID returns the resolved user, if any.
func (rc *RequestContext) UserID() (string, bool) {
	if rc == nil {
		return "", false
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.principal == nil {
		return "", false
	}
	return rc.principal.UserID, true
}

// Principal returns a copy of the resolved principal, or nil.
func (rc *RequestContext) Principal() *domain.ResolvedPrincipal {
	if rc == nil {
		return nil
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.principal.Clone()
}

// IsEmpty reports whether neither a user nor a tenant is set.
func (rc *RequestContext) IsEmpty() bool {
	if rc == nil {
		return true
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.principal == nil && rc.tenantID == uuid.Nil
}

// Snapshot returns a copy of the current state.
func (rc *RequestContext) Snapshot() Snapshot {
	if rc == nil {
		return Snapshot{}
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	s := Snapshot{
		TenantID:  rc.tenantID,
		Principal: rc.principal.Clone(),
	}
	if rc.principal != nil {
		s.UserID = rc.principal.UserID
	}
	return s
}

func (rc *RequestContext) clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.principal = nil
	rc.tenantID = uuid.Nil
}
