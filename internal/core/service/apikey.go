package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

// APIKeyService provides administrative operations on API key records.
type APIKeyService struct {
	repo APIKeyRepository
}

// NewAPIKeyService creates an APIKeyService.
func NewAPIKeyService(repo APIKeyRepository) *APIKeyService {
	return &APIKeyService{repo: repo}
}

// CreateAPIKeyRequest contains parameters for key creation.
type CreateAPIKeyRequest struct {
	TenantID string
	Name     string
	Scope    string
	// TTL of zero creates a key that never expires.
	TTL time.Duration
}

// CreateAPIKeyResponse contains the stored record and the plaintext key.
// The plaintext is shown once and cannot be recovered.
type CreateAPIKeyResponse struct {
	Record   *domain.APIKeyRecord
	PlainKey string
}

// Create issues a new key for a tenant.
func (s *APIKeyService) Create(ctx context.Context, req *CreateAPIKeyRequest) (*CreateAPIKeyResponse, error) {
	tenantID, err := domain.ParseTenantID(req.TenantID)
	if err != nil {
		return nil, err
	}
	if req.TTL < 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("ttl must not be negative")
	}

	rec, plain, err := domain.NewAPIKeyRecord(tenantID, strings.TrimSpace(req.Name), req.Scope)
	if err != nil {
		return nil, err
	}
	if req.TTL > 0 {
		rec.ExpiresAt = time.UnixMilli(rec.CreatedAt).Add(req.TTL).UnixMilli()
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return &CreateAPIKeyResponse{Record: rec, PlainKey: plain}, nil
}

// Get returns one record by key ID.
func (s *APIKeyService) Get(ctx context.Context, keyID string) (*domain.APIKeyRecord, error) {
	if !domain.IsValidAPIKeyID(keyID) {
		return nil, domain.ErrInvalidArgument.WithDetails("invalid key_id format")
	}
	return s.repo.Get(ctx, strings.ToLower(keyID))
}

// List returns the keys of a tenant, or of every tenant when tenant is empty.
func (s *APIKeyService) List(ctx context.Context, tenant string) ([]*domain.APIKeyRecord, error) {
	tenantID := uuid.Nil
	if strings.TrimSpace(tenant) != "" {
		id, err := domain.ParseTenantID(tenant)
		if err != nil {
			return nil, err
		}
		tenantID = id
	}
	return s.repo.List(ctx, tenantID)
}

// SetActive enables or disables a key. Disabled keys stop authenticating on
// the next request.
func (s *APIKeyService) SetActive(ctx context.Context, keyID string, active bool) (*domain.APIKeyRecord, error) {
	rec, err := s.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if rec.Active == active {
		return rec, nil
	}
	rec.Active = active
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
