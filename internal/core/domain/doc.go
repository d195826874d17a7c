// Package domain defines the core domain models for tenantgate.
//
// Domain models are plain values without IO dependencies:
//
//   - APIKeyRecord: a stored, tenant-scoped API key (hash only, never the secret)
//   - Membership: a (user, tenant) pair that authorizes tenant-scoped access
//   - Credential / ResolvedPrincipal: what a request presented and who it resolved to
//   - Errors: coded domain errors shared by services and transports
package domain
