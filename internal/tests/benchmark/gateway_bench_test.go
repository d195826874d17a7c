package benchmark

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/tenantgate/internal/core/service"
	"github.com/yndnr/tenantgate/internal/infra/tokenverify"
	"github.com/yndnr/tenantgate/internal/server/httpserver"
	"github.com/yndnr/tenantgate/internal/storage/memory"
)

const benchSecret = "benchmark-secret-that-is-at-least-32-bytes"

// newRouter builds the full filter chain over in-memory stores.
func newRouter(b *testing.B, keys *memory.APIKeyStore, members *memory.MembershipStore) http.Handler {
	b.Helper()
	verifier, err := tokenverify.New(tokenverify.Config{HMACSecret: benchSecret})
	if err != nil {
		b.Fatalf("tokenverify.New() error = %v", err)
	}
	limiter := newLimiter(b, math.MaxInt32)

	return httpserver.NewRouter(&httpserver.RouterConfig{
		Gateway: &httpserver.GatewayConfig{
			Tokens:  service.NewTokenResolver(verifier, discard),
			Keys:    service.NewAPIKeyResolver(keys, discard),
			Members: service.NewMembershipValidator(members, discard),
		},
		RateLimit: &httpserver.RateLimitConfig{
			Limiter:     limiter,
			ExemptPaths: httpserver.DefaultExemptPaths,
		},
		Version: "bench",
		Logger:  discard,
	})
}

func signToken(b *testing.B, subject string) string {
	b.Helper()
	now := time.Now()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(benchSecret))
	if err != nil {
		b.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func serve(h http.Handler, req *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

// BenchmarkGateway_Anonymous measures a request without credentials.
func BenchmarkGateway_Anonymous(b *testing.B) {
	h := newRouter(b, memory.NewAPIKeyStore(), memory.NewMembershipStore())

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if code := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/context", nil)); code != http.StatusUnauthorized {
			b.Fatalf("status = %d, want %d", code, http.StatusUnauthorized)
		}
	}
}

// BenchmarkGateway_Bearer measures a member calling with a bearer token.
func BenchmarkGateway_Bearer(b *testing.B) {
	members := memory.NewMembershipStore()
	tenants := newTenants(1)
	prefillMembers(b, members, tenants, 1)
	h := newRouter(b, memory.NewAPIKeyStore(), members)
	token := "Bearer " + signToken(b, "user-0")

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/context", nil)
		req.Header.Set(httpserver.HeaderAuthorization, token)
		req.Header.Set(httpserver.HeaderTenantID, tenants[0].String())
		if code := serve(h, req); code != http.StatusOK {
			b.Fatalf("status = %d, want %d", code, http.StatusOK)
		}
	}
}

// BenchmarkGateway_APIKey measures a request authenticated by API key.
func BenchmarkGateway_APIKey(b *testing.B) {
	keys := memory.NewAPIKeyStore()
	issued := prefillKeys(b, keys, newTenants(10), 1000)
	h := newRouter(b, keys, memory.NewMembershipStore())

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/context", nil)
		req.Header.Set(httpserver.HeaderAPIKey, issued[i%len(issued)].plain)
		if code := serve(h, req); code != http.StatusOK {
			b.Fatalf("status = %d, want %d", code, http.StatusOK)
		}
	}
}

// BenchmarkGateway_Parallel runs API key requests from many goroutines.
func BenchmarkGateway_Parallel(b *testing.B) {
	keys := memory.NewAPIKeyStore()
	issued := prefillKeys(b, keys, newTenants(10), 1000)
	h := newRouter(b, keys, memory.NewMembershipStore())

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/context", nil)
			req.Header.Set(httpserver.HeaderAPIKey, issued[i%len(issued)].plain)
			if code := serve(h, req); code != http.StatusOK {
			b.Fatalf("status = %d, want %d", code, http.StatusOK)
		}
			i++
		}
	})
}
