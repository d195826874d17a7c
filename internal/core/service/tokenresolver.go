package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

// TokenClaims are the validated claims of a bearer token.
type TokenClaims struct {
	Subject     string
	Email       string
	Authorities []string
	ExpiresAt   time.Time
}

// KeyValidator checks a bearer token's signature, expiry and issuer, and
// returns its claims. Implementations return an error for any token that
// must not authenticate.
type KeyValidator interface {
	Validate(ctx context.Context, token string) (*TokenClaims, error)
}

// TokenResolver turns an Authorization: Bearer header into a principal.
type TokenResolver struct {
	validator KeyValidator
	logger    *slog.Logger
}

// NewTokenResolver creates a TokenResolver.
func NewTokenResolver(validator KeyValidator, logger *slog.Logger) *TokenResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenResolver{validator: validator, logger: logger}
}

// Resolve validates the bearer token in authorization. A header without the
// Bearer prefix is ignored. A token that fails validation yields no
// principal and a warning; the request continues anonymously.
func (r *TokenResolver) Resolve(ctx context.Context, authorization string) (*domain.ResolvedPrincipal, Outcome) {
	cred, ok := domain.BearerFromHeader(authorization)
	if !ok {
		return nil, OutcomeAbsent
	}
	return r.ResolveCredential(ctx, cred)
}

// ResolveCredential validates a bearer credential. Credentials of any other
// kind are ignored.
func (r *TokenResolver) ResolveCredential(ctx context.Context, cred domain.Credential) (*domain.ResolvedPrincipal, Outcome) {
	if cred.Kind != domain.CredentialBearer {
		return nil, OutcomeAbsent
	}

	raw := strings.TrimSpace(cred.Raw)
	if raw == "" {
		r.logger.WarnContext(ctx, "bearer token rejected", "reason", "empty token")
		return nil, OutcomeRejected
	}

	claims, err := r.validator.Validate(ctx, raw)
	if err != nil {
		r.logger.WarnContext(ctx, "bearer token rejected", "reason", err.Error())
		return nil, OutcomeRejected
	}
	if strings.TrimSpace(claims.Subject) == "" {
		r.logger.WarnContext(ctx, "bearer token rejected", "reason", "missing subject")
		return nil, OutcomeRejected
	}

	return &domain.ResolvedPrincipal{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Authorities: claims.Authorities,
		Credential:  domain.CredentialBearer,
	}, OutcomeAuthenticated
}
