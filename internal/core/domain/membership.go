// Package domain defines the core domain models for tenantgate.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// MaxUserIDLength bounds user identifiers taken from token subjects.
const MaxUserIDLength = 256

// Membership records that a user belongs to a tenant. Its existence is the
// only basis for trusting a tenant claimed by a token-authenticated caller.
type Membership struct {
	UserID    string    `json:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	CreatedAt int64     `json:"created_at"`
}

// NewMembership creates a validated membership stamped with the current time.
func NewMembership(userID string, tenantID uuid.UUID) (*Membership, error) {
	m := &Membership{
		UserID:    userID,
		TenantID:  tenantID,
		CreatedAt: currentTimeMillis(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the membership fields.
func (m *Membership) Validate() error {
	var violations []string
	if strings.TrimSpace(m.UserID) == "" {
		violations = append(violations, "user_id is required")
	} else if len(m.UserID) > MaxUserIDLength {
		violations = append(violations, "user_id exceeds 256 characters")
	}
	if m.TenantID == uuid.Nil {
		violations = append(violations, "tenant_id is required")
	}
	if len(violations) > 0 {
		return ErrMembershipValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// ParseTenantID parses a client supplied tenant identifier.
// Blank input, unparsable input and the nil UUID are all rejected.
func ParseTenantID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, ErrTenantIDMalformed.WithDetails("empty")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrTenantIDMalformed.WithCause(err)
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrTenantIDMalformed.WithDetails("nil uuid")
	}
	return id, nil
}
