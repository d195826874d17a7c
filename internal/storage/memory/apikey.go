package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// APIKeyStore provides in-memory storage for API key records.
type APIKeyStore struct {
	mu     sync.RWMutex
	keys   map[string]*domain.APIKeyRecord
	byHash map[string]string
}

var _ service.APIKeyRepository = (*APIKeyStore)(nil)

// NewAPIKeyStore creates a new API key store.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{
		keys:   make(map[string]*domain.APIKeyRecord),
		byHash: make(map[string]string),
	}
}

// Get retrieves a record by key ID.
func (s *APIKeyStore) Get(_ context.Context, keyID string) (*domain.APIKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.keys[keyID]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound
	}
	return rec.Clone(), nil
}

// GetByHash retrieves a record by the digest of its plaintext key.
func (s *APIKeyStore) GetByHash(_ context.Context, secretHash string) (*domain.APIKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyID, ok := s.byHash[secretHash]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound
	}
	return s.keys[keyID].Clone(), nil
}

// Create stores a new record.
func (s *APIKeyStore) Create(_ context.Context, rec *domain.APIKeyRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[rec.KeyID]; exists {
		return domain.ErrAPIKeyConflict
	}
	if _, exists := s.byHash[rec.SecretHash]; exists {
		return domain.ErrAPIKeyConflict.WithDetails("secret hash already indexed")
	}

	s.keys[rec.KeyID] = rec.Clone()
	s.byHash[rec.SecretHash] = rec.KeyID
	return nil
}

// Update replaces an existing record. The secret hash cannot change.
func (s *APIKeyStore) Update(_ context.Context, rec *domain.APIKeyRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.keys[rec.KeyID]
	if !exists {
		return domain.ErrAPIKeyNotFound
	}
	if old.SecretHash != rec.SecretHash {
		return domain.ErrAPIKeyValidation.WithDetails("secret_hash is immutable")
	}

	s.keys[rec.KeyID] = rec.Clone()
	return nil
}

// TouchLastUsed advances LastUsedAt of one record.
func (s *APIKeyStore) TouchLastUsed(_ context.Context, keyID string, usedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.keys[keyID]
	if !ok {
		return domain.ErrAPIKeyNotFound
	}
	if usedAt > rec.LastUsedAt {
		rec.LastUsedAt = usedAt
	}
	return nil
}

// List returns the records of tenantID, or all records for uuid.Nil.
func (s *APIKeyStore) List(_ context.Context, tenantID uuid.UUID) ([]*domain.APIKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.APIKeyRecord, 0, len(s.keys))
	for _, rec := range s.keys {
		if tenantID == uuid.Nil || rec.TenantID == tenantID {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyID < out[j].KeyID })
	return out, nil
}
