// Package httpserver provides the HTTP server and the request-boundary
// gateway for tenantgate.
//
// Every request passes through the middleware chain
//
//	RequestID -> Recover -> CORS -> Audit -> RateLimit -> Gateway -> handler
//
// RateLimit rejects excess traffic before any credential is looked at.
// Gateway resolves at most one principal (bearer token first, then API key),
// validates the declared tenant, and populates the request context, which it
// clears again when the handler returns or panics.
package httpserver
