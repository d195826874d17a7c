// Package handler provides the HTTP handlers behind the gateway.
//
// Endpoints:
//
//   - GET /health, GET /ready: liveness and store readiness
//   - GET /docs: a static description of the API surface
//   - GET /api/v1/context: the principal and tenant established for the call
//
// Every JSON response uses the Response envelope.
package handler
