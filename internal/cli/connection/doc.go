// Package connection provides the HTTP client tenantgate-cli uses to talk
// to a running gateway.
//
// Credentials are sent the way any API caller sends them: a bearer token in
// Authorization, an API key in X-API-Key and the requested tenant in
// X-Tenant-Id.
package connection
