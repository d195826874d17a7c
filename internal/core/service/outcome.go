package service

// Outcome is the result of one credential or tenant resolution step. The
// gateway records it in metrics; it never changes the HTTP response.
type Outcome string

const (
	// OutcomeAbsent means the request carried no credential for the resolver.
	OutcomeAbsent Outcome = "absent"

	// OutcomeAuthenticated means a principal was resolved.
	OutcomeAuthenticated Outcome = "authenticated"

	// OutcomeRejected means a credential was present but did not resolve.
	OutcomeRejected Outcome = "rejected"

	// OutcomeSkipped means an earlier resolver already set a principal.
	OutcomeSkipped Outcome = "skipped"
)

// TenantDecision is the result of tenant resolution for one request.
type TenantDecision string

const (
	TenantAbsent    TenantDecision = "absent"
	TenantMalformed TenantDecision = "malformed"
	TenantGranted   TenantDecision = "granted"
	TenantTrusted   TenantDecision = "trusted"
	TenantDenied    TenantDecision = "denied"
	TenantError     TenantDecision = "error"
)

// Granted reports whether the decision sets a tenant on the request.
func (d TenantDecision) Granted() bool {
	return d == TenantGranted || d == TenantTrusted
}
