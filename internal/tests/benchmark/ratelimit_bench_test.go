package benchmark

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/yndnr/tenantgate/internal/core/service"
)

func newLimiter(b *testing.B, limit int) *service.RateLimiter {
	b.Helper()
	l, err := service.NewRateLimiter(service.RateLimitConfig{
		Limit:         limit,
		Window:        time.Minute,
		SweepInterval: time.Minute,
	}, discard)
	if err != nil {
		b.Fatalf("NewRateLimiter() error = %v", err)
	}
	return l
}

// BenchmarkRateLimitAllow_HotKey hits one key from every goroutine.
func BenchmarkRateLimitAllow_HotKey(b *testing.B) {
	l := newLimiter(b, math.MaxInt32)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := l.Allow(ctx, "ip:10.0.0.1"); err != nil {
				b.Errorf("Allow() error = %v", err)
				return
			}
		}
	})
}

// BenchmarkRateLimitAllow_SpreadKeys spreads requests over many clients.
func BenchmarkRateLimitAllow_SpreadKeys(b *testing.B) {
	runWithCounts(b, "clients", ClientCounts, func(b *testing.B, count int) {
		l := newLimiter(b, math.MaxInt32)
		ctx := context.Background()

		keys := make([]string, count)
		for i := range keys {
			keys[i] = fmt.Sprintf("ip:10.%d.%d.%d", i>>16&0xff, i>>8&0xff, i&0xff)
		}

		b.ReportAllocs()
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				if _, err := l.Allow(ctx, keys[i%len(keys)]); err != nil {
					b.Errorf("Allow() error = %v", err)
					return
				}
				i++
			}
		})

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkRateLimitAllow_Rejected measures the path of a key over its limit.
func BenchmarkRateLimitAllow_Rejected(b *testing.B) {
	l := newLimiter(b, 1)
	ctx := context.Background()
	_, _ = l.Allow(ctx, "tenant:bench")

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d, err := l.Allow(ctx, "tenant:bench")
		if err != nil {
			b.Fatalf("Allow() error = %v", err)
		}
		if d.Allowed {
			b.Fatal("Allow() = allowed, want rejected")
		}
	}
}

// BenchmarkRateLimitSweep measures a sweep that finds nothing to evict.
func BenchmarkRateLimitSweep(b *testing.B) {
	runWithCounts(b, "clients", ClientCounts, func(b *testing.B, count int) {
		l := newLimiter(b, math.MaxInt32)
		ctx := context.Background()
		for i := 0; i < count; i++ {
			_, _ = l.Allow(ctx, fmt.Sprintf("ip:client-%d", i))
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			l.Sweep()
		}
	})
}
