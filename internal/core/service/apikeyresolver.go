package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

// APIKeyUserPrefix prefixes the user id of principals resolved from API keys.
const APIKeyUserPrefix = "apikey:"

// APIKeyRepository defines the storage interface for API key records.
type APIKeyRepository interface {
	// Get retrieves a record by key ID.
	Get(ctx context.Context, keyID string) (*domain.APIKeyRecord, error)

	// GetByHash retrieves a record by the SHA-256 digest of its plaintext
	// key. Returns domain.ErrAPIKeyNotFound if absent.
	GetByHash(ctx context.Context, secretHash string) (*domain.APIKeyRecord, error)

	// Create stores a new record.
	Create(ctx context.Context, rec *domain.APIKeyRecord) error

	// Update replaces an existing record.
	Update(ctx context.Context, rec *domain.APIKeyRecord) error

	// TouchLastUsed sets LastUsedAt of one record. It is a single write that
	// never moves LastUsedAt backwards.
	TouchLastUsed(ctx context.Context, keyID string, usedAt int64) error

	// List returns the records of tenantID, or all records for uuid.Nil.
	List(ctx context.Context, tenantID uuid.UUID) ([]*domain.APIKeyRecord, error)
}

// APIKeyResolver turns an X-API-Key header into a tenant-bound principal.
type APIKeyResolver struct {
	repo   APIKeyRepository
	logger *slog.Logger
}

// NewAPIKeyResolver creates an APIKeyResolver.
func NewAPIKeyResolver(repo APIKeyRepository, logger *slog.Logger) *APIKeyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyResolver{repo: repo, logger: logger}
}

// Resolve looks up rawKey by digest. When current is already set the
// resolver does nothing and returns it unchanged.
func (r *APIKeyResolver) Resolve(ctx context.Context, rawKey string, current *domain.ResolvedPrincipal) (*domain.ResolvedPrincipal, Outcome) {
	return r.ResolveCredential(ctx, domain.APIKeyCredential(rawKey), current)
}

// ResolveCredential resolves an API key credential. Credentials of any
// other kind are ignored.
func (r *APIKeyResolver) ResolveCredential(ctx context.Context, cred domain.Credential, current *domain.ResolvedPrincipal) (*domain.ResolvedPrincipal, Outcome) {
	if current != nil {
		return current, OutcomeSkipped
	}
	if cred.Kind != domain.CredentialAPIKey {
		return nil, OutcomeAbsent
	}

	rawKey := strings.TrimSpace(cred.Raw)
	if rawKey == "" {
		return nil, OutcomeAbsent
	}

	rec, err := r.repo.GetByHash(ctx, domain.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, domain.ErrAPIKeyNotFound) {
			r.logger.WarnContext(ctx, "api key rejected", "reason", "unknown key")
		} else {
			r.logger.WarnContext(ctx, "api key rejected", "reason", "lookup failed", "error", err)
		}
		return nil, OutcomeRejected
	}

	if !rec.Active {
		r.logger.WarnContext(ctx, "api key rejected", "reason", "inactive", "key_id", rec.KeyID)
		return nil, OutcomeRejected
	}
	if rec.IsExpired() {
		r.logger.WarnContext(ctx, "api key rejected", "reason", "expired", "key_id", rec.KeyID)
		return nil, OutcomeRejected
	}

	touched := rec.Clone()
	touched.Touch()
	if err := r.repo.TouchLastUsed(ctx, touched.KeyID, touched.LastUsedAt); err != nil {
		r.logger.WarnContext(ctx, "failed to record api key usage", "key_id", rec.KeyID, "error", err)
	}

	return &domain.ResolvedPrincipal{
		UserID:      APIKeyUserPrefix + rec.KeyID,
		Authorities: rec.Authorities(),
		Credential:  domain.CredentialAPIKey,
		KeyID:       rec.KeyID,
		TenantID:    rec.TenantID,
	}, OutcomeAuthenticated
}
