package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// Key layout:
//
//	apikey/id/{key_id}        -> JSON APIKeyRecord
//	apikey/hash/{secret_hash} -> key_id
const (
	apiKeyIDPrefix   = "apikey/id/"
	apiKeyHashPrefix = "apikey/hash/"
)

// APIKeyStore persists API key records in a KVEngine with a digest index.
type APIKeyStore struct {
	kv KVEngine
}

var _ service.APIKeyRepository = (*APIKeyStore)(nil)

// NewAPIKeyStore creates an APIKeyStore on kv.
func NewAPIKeyStore(kv KVEngine) *APIKeyStore {
	return &APIKeyStore{kv: kv}
}

func apiKeyIDKey(keyID string) []byte {
	return []byte(apiKeyIDPrefix + keyID)
}

func apiKeyHashKey(hash string) []byte {
	return []byte(apiKeyHashPrefix + hash)
}

// Get retrieves a record by key ID.
func (s *APIKeyStore) Get(ctx context.Context, keyID string) (*domain.APIKeyRecord, error) {
	data, err := s.kv.Get(ctx, apiKeyIDKey(keyID))
	if err != nil {
		return nil, mapNotFound(err, domain.ErrAPIKeyNotFound)
	}
	return decodeAPIKey(data)
}

// GetByHash retrieves a record through the digest index.
func (s *APIKeyStore) GetByHash(ctx context.Context, secretHash string) (*domain.APIKeyRecord, error) {
	keyID, err := s.kv.Get(ctx, apiKeyHashKey(secretHash))
	if err != nil {
		return nil, mapNotFound(err, domain.ErrAPIKeyNotFound)
	}
	return s.Get(ctx, string(keyID))
}

// Create stores a new record and its index entry.
func (s *APIKeyStore) Create(ctx context.Context, rec *domain.APIKeyRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.Update(ctx, func(txn Txn) error {
		if _, err := txn.Get(apiKeyIDKey(rec.KeyID)); err == nil {
			return domain.ErrAPIKeyConflict
		} else if !errors.Is(err, ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get(apiKeyHashKey(rec.SecretHash)); err == nil {
			return domain.ErrAPIKeyConflict.WithDetails("secret hash already indexed")
		} else if !errors.Is(err, ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(apiKeyIDKey(rec.KeyID), data); err != nil {
			return err
		}
		return txn.Set(apiKeyHashKey(rec.SecretHash), []byte(rec.KeyID))
	})
	return wrapStorage(err)
}

// Update replaces an existing record. The secret hash cannot change.
func (s *APIKeyStore) Update(ctx context.Context, rec *domain.APIKeyRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.Update(ctx, func(txn Txn) error {
		existing, err := txn.Get(apiKeyIDKey(rec.KeyID))
		if err != nil {
			return mapNotFound(err, domain.ErrAPIKeyNotFound)
		}
		old, err := decodeAPIKey(existing)
		if err != nil {
			return err
		}
		if old.SecretHash != rec.SecretHash {
			return domain.ErrAPIKeyValidation.WithDetails("secret_hash is immutable")
		}
		return txn.Set(apiKeyIDKey(rec.KeyID), data)
	})
	return wrapStorage(err)
}

// TouchLastUsed advances LastUsedAt in a single transaction.
func (s *APIKeyStore) TouchLastUsed(ctx context.Context, keyID string, usedAt int64) error {
	err := s.kv.Update(ctx, func(txn Txn) error {
		data, err := txn.Get(apiKeyIDKey(keyID))
		if err != nil {
			return mapNotFound(err, domain.ErrAPIKeyNotFound)
		}
		rec, err := decodeAPIKey(data)
		if err != nil {
			return err
		}
		if usedAt <= rec.LastUsedAt {
			return nil
		}
		rec.LastUsedAt = usedAt
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(apiKeyIDKey(keyID), updated)
	})
	return wrapStorage(err)
}

// List returns the records of tenantID, or all records for uuid.Nil,
// ordered by key ID.
func (s *APIKeyStore) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.APIKeyRecord, error) {
	var (
		out     []*domain.APIKeyRecord
		scanErr error
	)
	err := s.kv.Scan(ctx, []byte(apiKeyIDPrefix), func(_, value []byte) bool {
		rec, err := decodeAPIKey(value)
		if err != nil {
			scanErr = err
			return false
		}
		if tenantID == uuid.Nil || rec.TenantID == tenantID {
			out = append(out, rec)
		}
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if scanErr != nil {
		return nil, scanErr
	}

	sort.Slice(out, func(i, j int) bool { return out[i].KeyID < out[j].KeyID })
	return out, nil
}

func decodeAPIKey(data []byte) (*domain.APIKeyRecord, error) {
	var rec domain.APIKeyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.ErrStorageError.WithDetails("decode api key record").WithCause(err)
	}
	return &rec, nil
}

// mapNotFound converts ErrKeyNotFound to notFound and wraps other errors.
func mapNotFound(err error, notFound *domain.DomainError) error {
	if errors.Is(err, ErrKeyNotFound) {
		return notFound
	}
	return wrapStorage(err)
}

// wrapStorage passes domain errors through and wraps everything else.
func wrapStorage(err error) error {
	if err == nil || domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
