package httpserver

import (
	"net"
	"net/http"
	"strings"
)

// Request headers read by the gateway.
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-Key"
	HeaderTenantID      = "X-Tenant-Id"
	HeaderRequestID     = "X-Request-ID"
)

// proxyHeaders are consulted in order for the originating client address.
var proxyHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
}

// ClientKey returns the rate limit key of r: the declared tenant when the
// X-Tenant-Id header is present, otherwise the client address.
//
// The tenant value is not validated here because limiting happens before
// authentication. A client that sends a different X-Tenant-Id on each call
// gets a fresh budget per value, so the header bounds honest tenants only;
// per-address limits have to come from a proxy in front of the gateway.
func ClientKey(r *http.Request) string {
	if tenant := strings.TrimSpace(r.Header.Get(HeaderTenantID)); tenant != "" {
		return "tenant:" + tenant
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	for _, h := range proxyHeaders {
		v := r.Header.Get(h)
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	// Use net.SplitHostPort to correctly handle IPv6 addresses like [::1]:8080
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
