package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/service"
)

var (
	tenantAcme   = uuid.MustParse("6f1c1d52-2b9e-4f0e-9a39-0c4f4f7a1d10")
	tenantGlobex = uuid.MustParse("0b7a4a3e-58f2-4d1e-8c1b-5d2f9e0a7c44")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// mockValidator accepts tokens of the form "valid-<subject>".
type mockValidator struct {
	mu     sync.RWMutex
	claims map[string]*service.TokenClaims
}

func newMockValidator() *mockValidator {
	return &mockValidator{claims: make(map[string]*service.TokenClaims)}
}

func (v *mockValidator) add(token, subject string, authorities ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.claims[token] = &service.TokenClaims{
		Subject:     subject,
		Email:       subject + "@example.com",
		Authorities: authorities,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func (v *mockValidator) Validate(_ context.Context, token string) (*service.TokenClaims, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.claims[token]
	if !ok {
		return nil, errors.New("signature is invalid")
	}
	cp := *c
	return &cp, nil
}

// mockLimiter returns a fixed decision or error.
type mockLimiter struct {
	mu       sync.RWMutex
	decision service.RateDecision
	err      error
	keys     []string
}

func (l *mockLimiter) Allow(_ context.Context, key string) (service.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return l.decision, l.err
}

func (l *mockLimiter) calls() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.keys...)
}

// countingMetrics records gateway events.
type countingMetrics struct {
	mu       sync.RWMutex
	auth     map[string]int
	tenant   map[string]int
	limited  int
	limitErr int
	requests int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{auth: make(map[string]int), tenant: make(map[string]int)}
}

func (m *countingMetrics) RecordRequest(string, string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
}

func (m *countingMetrics) RecordAuth(credential, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth[credential+"/"+outcome]++
}

func (m *countingMetrics) RecordTenant(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenant[decision]++
}

func (m *countingMetrics) IncRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limited++
}

func (m *countingMetrics) IncRateLimitError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limitErr++
}

func (m *countingMetrics) authCount(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auth[key]
}

func (m *countingMetrics) tenantCount(decision string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tenant[decision]
}
