// Package service holds the request-boundary services of tenantgate.
//
// Services define the storage interfaces they depend on and are safe for
// concurrent use:
//
//   - TokenResolver: Authorization: Bearer token to principal
//   - APIKeyResolver: X-API-Key to tenant-bound principal
//   - MembershipValidator: X-Tenant-Id to validated tenant
//   - RateLimiter: fixed-window request counting per client key
//   - APIKeyService, MembershipService: administrative operations
//
// Resolution never fails a request. A credential that cannot be resolved is
// logged and the request continues anonymously.
package service
