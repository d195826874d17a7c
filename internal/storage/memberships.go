package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// Key layout:
//
//	member/{tenant_id}/{user_id}           -> JSON Membership
//	member-user/{hex(user_id)}/{tenant_id} -> empty
//
// The user index hex-encodes the user id so that prefix scans cannot match a
// different user whose id extends this one.
const (
	memberPrefix     = "member/"
	memberUserPrefix = "member-user/"
)

// MembershipStore persists memberships in a KVEngine.
type MembershipStore struct {
	kv KVEngine
}

var _ service.MembershipRepository = (*MembershipStore)(nil)

// NewMembershipStore creates a MembershipStore on kv.
func NewMembershipStore(kv KVEngine) *MembershipStore {
	return &MembershipStore{kv: kv}
}

func memberKey(userID string, tenantID uuid.UUID) []byte {
	return []byte(memberPrefix + tenantID.String() + "/" + userID)
}

func memberTenantPrefix(tenantID uuid.UUID) []byte {
	return []byte(memberPrefix + tenantID.String() + "/")
}

func memberUserIndexPrefix(userID string) []byte {
	return []byte(memberUserPrefix + hex.EncodeToString([]byte(userID)) + "/")
}

func memberUserKey(userID string, tenantID uuid.UUID) []byte {
	return append(memberUserIndexPrefix(userID), tenantID.String()...)
}

// Exists reports whether userID is a member of tenantID.
func (s *MembershipStore) Exists(ctx context.Context, userID string, tenantID uuid.UUID) (bool, error) {
	_, err := s.kv.Get(ctx, memberKey(userID, tenantID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return false, domain.ErrStorageError.WithCause(err)
}

// Add stores a membership and its user index entry.
func (s *MembershipStore) Add(ctx context.Context, m *domain.Membership) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.Update(ctx, func(txn Txn) error {
		if _, err := txn.Get(memberKey(m.UserID, m.TenantID)); err == nil {
			return domain.ErrMembershipConflict
		} else if !errors.Is(err, ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(memberKey(m.UserID, m.TenantID), data); err != nil {
			return err
		}
		return txn.Set(memberUserKey(m.UserID, m.TenantID), nil)
	})
	return wrapStorage(err)
}

// Remove deletes a membership and its index entry.
func (s *MembershipStore) Remove(ctx context.Context, userID string, tenantID uuid.UUID) error {
	err := s.kv.Update(ctx, func(txn Txn) error {
		if _, err := txn.Get(memberKey(userID, tenantID)); err != nil {
			return mapNotFound(err, domain.ErrMembershipNotFound)
		}
		if err := txn.Delete(memberKey(userID, tenantID)); err != nil {
			return err
		}
		return txn.Delete(memberUserKey(userID, tenantID))
	})
	return wrapStorage(err)
}

// ListByUser returns the memberships of one user.
func (s *MembershipStore) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	prefix := memberUserIndexPrefix(userID)

	var tenants []uuid.UUID
	err := s.kv.Scan(ctx, prefix, func(key, _ []byte) bool {
		if id, err := uuid.ParseBytes(key[len(prefix):]); err == nil {
			tenants = append(tenants, id)
		}
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}

	out := make([]*domain.Membership, 0, len(tenants))
	for _, tenantID := range tenants {
		data, err := s.kv.Get(ctx, memberKey(userID, tenantID))
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, domain.ErrStorageError.WithCause(err)
		}
		m, err := decodeMembership(data)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ListByTenant returns the memberships of one tenant.
func (s *MembershipStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	var (
		out     []*domain.Membership
		scanErr error
	)
	err := s.kv.Scan(ctx, memberTenantPrefix(tenantID), func(_, value []byte) bool {
		m, err := decodeMembership(value)
		if err != nil {
			scanErr = err
			return false
		}
		out = append(out, m)
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return out, scanErr
}

func decodeMembership(data []byte) (*domain.Membership, error) {
	var m domain.Membership
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.ErrStorageError.WithDetails("decode membership").WithCause(err)
	}
	return &m, nil
}
