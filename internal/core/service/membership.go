package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

// MembershipRepository defines the storage interface for user-tenant memberships.
type MembershipRepository interface {
	// Exists reports whether userID is a member of tenantID.
	Exists(ctx context.Context, userID string, tenantID uuid.UUID) (bool, error)

	// Add stores a membership. Adding an existing membership returns
	// domain.ErrMembershipConflict.
	Add(ctx context.Context, m *domain.Membership) error

	// Remove deletes a membership. Returns domain.ErrMembershipNotFound if absent.
	Remove(ctx context.Context, userID string, tenantID uuid.UUID) error

	// ListByUser returns the memberships of one user.
	ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error)

	// ListByTenant returns the memberships of one tenant.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error)
}

// MembershipValidator decides which tenant, if any, a request acts for.
type MembershipValidator struct {
	repo   MembershipRepository
	logger *slog.Logger
}

// NewMembershipValidator creates a MembershipValidator.
func NewMembershipValidator(repo MembershipRepository, logger *slog.Logger) *MembershipValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipValidator{repo: repo, logger: logger}
}

// ResolveTenant returns the tenant for principal p given the raw X-Tenant-Id
// header. API key principals always act for their own tenant. Other
// principals get the declared tenant only when a membership exists.
func (v *MembershipValidator) ResolveTenant(ctx context.Context, p *domain.ResolvedPrincipal, declared string) (uuid.UUID, TenantDecision) {
	if p == nil {
		return uuid.Nil, TenantAbsent
	}

	if trusted, ok := p.TrustedTenant(); ok {
		if declared = strings.TrimSpace(declared); declared != "" {
			if id, err := domain.ParseTenantID(declared); err != nil || id != trusted {
				v.logger.WarnContext(ctx, "tenant header does not match api key tenant",
					"key_id", p.KeyID, "tenant_id", trusted.String(), "declared_tenant", declared)
			}
		}
		return trusted, TenantTrusted
	}

	return v.Validate(ctx, p.UserID, declared)
}

// Validate checks that userID is a member of the declared tenant. It never
// returns an error: a missing, malformed or unauthorized tenant leaves the
// request without one.
func (v *MembershipValidator) Validate(ctx context.Context, userID, declared string) (uuid.UUID, TenantDecision) {
	if strings.TrimSpace(declared) == "" {
		return uuid.Nil, TenantAbsent
	}

	tenantID, err := domain.ParseTenantID(declared)
	if err != nil {
		v.logger.DebugContext(ctx, "ignoring malformed tenant header", "user_id", userID)
		return uuid.Nil, TenantMalformed
	}

	ok, err := v.repo.Exists(ctx, userID, tenantID)
	if err != nil {
		v.logger.ErrorContext(ctx, "membership lookup failed",
			"user_id", userID, "tenant_id", tenantID.String(), "error", err)
		return uuid.Nil, TenantError
	}
	if !ok {
		v.logger.WarnContext(ctx, "user is not a member of tenant",
			"user_id", userID, "tenant_id", tenantID.String())
		return uuid.Nil, TenantDenied
	}

	return tenantID, TenantGranted
}

// MembershipService provides administrative operations on memberships.
type MembershipService struct {
	repo MembershipRepository
}

// NewMembershipService creates a MembershipService.
func NewMembershipService(repo MembershipRepository) *MembershipService {
	return &MembershipService{repo: repo}
}

// Add grants userID access to tenant.
func (s *MembershipService) Add(ctx context.Context, userID, tenant string) (*domain.Membership, error) {
	tenantID, err := domain.ParseTenantID(tenant)
	if err != nil {
		return nil, err
	}
	m, err := domain.NewMembership(strings.TrimSpace(userID), tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Remove revokes userID's access to tenant.
func (s *MembershipService) Remove(ctx context.Context, userID, tenant string) error {
	tenantID, err := domain.ParseTenantID(tenant)
	if err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return domain.ErrMissingArgument.WithDetails("user_id is required")
	}
	return s.repo.Remove(ctx, strings.TrimSpace(userID), tenantID)
}

// List returns memberships filtered by user or tenant; exactly one is required.
func (s *MembershipService) List(ctx context.Context, userID, tenant string) ([]*domain.Membership, error) {
	userID = strings.TrimSpace(userID)
	tenant = strings.TrimSpace(tenant)

	switch {
	case userID != "" && tenant != "":
		return nil, domain.ErrInvalidArgument.WithDetails("filter by user or tenant, not both")
	case userID != "":
		return s.repo.ListByUser(ctx, userID)
	case tenant != "":
		tenantID, err := domain.ParseTenantID(tenant)
		if err != nil {
			return nil, err
		}
		return s.repo.ListByTenant(ctx, tenantID)
	default:
		return nil, domain.ErrMissingArgument.WithDetails("user or tenant is required")
	}
}
