package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

type membershipKey struct {
	userID   string
	tenantID uuid.UUID
}

// MembershipStore provides in-memory storage for memberships.
type MembershipStore struct {
	mu      sync.RWMutex
	members map[membershipKey]*domain.Membership
}

var _ service.MembershipRepository = (*MembershipStore)(nil)

// NewMembershipStore creates a new membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{members: make(map[membershipKey]*domain.Membership)}
}

// Exists reports whether userID is a member of tenantID.
func (s *MembershipStore) Exists(_ context.Context, userID string, tenantID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[membershipKey{userID, tenantID}]
	return ok, nil
}

// Add stores a membership.
func (s *MembershipStore) Add(_ context.Context, m *domain.Membership) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := membershipKey{m.UserID, m.TenantID}
	if _, ok := s.members[k]; ok {
		return domain.ErrMembershipConflict
	}
	cp := *m
	s.members[k] = &cp
	return nil
}

// Remove deletes a membership.
func (s *MembershipStore) Remove(_ context.Context, userID string, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := membershipKey{userID, tenantID}
	if _, ok := s.members[k]; !ok {
		return domain.ErrMembershipNotFound
	}
	delete(s.members, k)
	return nil
}

// ListByUser returns the memberships of one user.
func (s *MembershipStore) ListByUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	return s.filter(func(k membershipKey) bool { return k.userID == userID }), nil
}

// ListByTenant returns the memberships of one tenant.
func (s *MembershipStore) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	return s.filter(func(k membershipKey) bool { return k.tenantID == tenantID }), nil
}

func (s *MembershipStore) filter(match func(membershipKey) bool) []*domain.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Membership
	for k, m := range s.members {
		if match(k) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}
