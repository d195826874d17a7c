package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"testing"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// KeyCounts is the number of stored API keys or memberships per run.
var KeyCounts = []int{1000, 10000, 50000}

// ClientCounts is the number of distinct rate limit keys per run.
var ClientCounts = []int{100, 10000, 100000}

var discard = slog.New(slog.DiscardHandler)

// issuedKey pairs a stored record with its plaintext.
type issuedKey struct {
	record *domain.APIKeyRecord
	plain  string
}

// prefillKeys stores count active keys spread over tenants.
func prefillKeys(b *testing.B, repo service.APIKeyRepository, tenants []uuid.UUID, count int) []issuedKey {
	b.Helper()
	ctx := context.Background()
	keys := make([]issuedKey, count)
	for i := range keys {
		rec, plain, err := domain.NewAPIKeyRecord(tenants[i%len(tenants)], fmt.Sprintf("bench-%d", i), "read write")
		if err != nil {
			b.Fatalf("NewAPIKeyRecord() error = %v", err)
		}
		if err := repo.Create(ctx, rec); err != nil {
			b.Fatalf("Create() error = %v", err)
		}
		keys[i] = issuedKey{record: rec, plain: plain}
	}
	return keys
}

// prefillMembers adds count users, each a member of one tenant.
func prefillMembers(b *testing.B, repo service.MembershipRepository, tenants []uuid.UUID, count int) []*domain.Membership {
	b.Helper()
	ctx := context.Background()
	members := make([]*domain.Membership, count)
	for i := range members {
		m, err := domain.NewMembership(fmt.Sprintf("user-%d", i), tenants[i%len(tenants)])
		if err != nil {
			b.Fatalf("NewMembership() error = %v", err)
		}
		if err := repo.Add(ctx, m); err != nil {
			b.Fatalf("Add() error = %v", err)
		}
		members[i] = m
	}
	return members
}

func newTenants(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

// reportMemory reports heap usage after a forced GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithCounts runs benchFn once per count as a named sub-benchmark.
func runWithCounts(b *testing.B, label string, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("%s_%d", label, count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
