package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

var (
	tenantAcme   = uuid.MustParse("6f1c1d52-2b9e-4f0e-9a39-0c4f4f7a1d10")
	tenantGlobex = uuid.MustParse("0b7a4a3e-58f2-4d1e-8c1b-5d2f9e0a7c44")
)

// bufferLogger returns a debug level JSON logger writing to a buffer.
func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

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

// mockAPIKeyRepo is an in-memory APIKeyRepository.
type mockAPIKeyRepo struct {
	mu       sync.RWMutex
	keys     map[string]*domain.APIKeyRecord
	touches  map[string]int
	touchErr error
	getErr   error
}

func newMockAPIKeyRepo() *mockAPIKeyRepo {
	return &mockAPIKeyRepo{
		keys:    make(map[string]*domain.APIKeyRecord),
		touches: make(map[string]int),
	}
}

func (m *mockAPIKeyRepo) Get(_ context.Context, keyID string) (*domain.APIKeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.keys[keyID]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound
	}
	return rec.Clone(), nil
}

func (m *mockAPIKeyRepo) GetByHash(_ context.Context, secretHash string) (*domain.APIKeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, rec := range m.keys {
		if rec.SecretHash == secretHash {
			return rec.Clone(), nil
		}
	}
	return nil, domain.ErrAPIKeyNotFound
}

func (m *mockAPIKeyRepo) Create(_ context.Context, rec *domain.APIKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[rec.KeyID]; exists {
		return domain.ErrAPIKeyConflict
	}
	m.keys[rec.KeyID] = rec.Clone()
	return nil
}

func (m *mockAPIKeyRepo) Update(_ context.Context, rec *domain.APIKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[rec.KeyID]; !exists {
		return domain.ErrAPIKeyNotFound
	}
	m.keys[rec.KeyID] = rec.Clone()
	return nil
}

func (m *mockAPIKeyRepo) TouchLastUsed(_ context.Context, keyID string, usedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touches[keyID]++
	if m.touchErr != nil {
		return m.touchErr
	}
	rec, ok := m.keys[keyID]
	if !ok {
		return domain.ErrAPIKeyNotFound
	}
	if usedAt > rec.LastUsedAt {
		rec.LastUsedAt = usedAt
	}
	return nil
}

func (m *mockAPIKeyRepo) List(_ context.Context, tenantID uuid.UUID) ([]*domain.APIKeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.APIKeyRecord
	for _, rec := range m.keys {
		if tenantID == uuid.Nil || rec.TenantID == tenantID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (m *mockAPIKeyRepo) touchCount(keyID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.touches[keyID]
}

// seed stores a fresh key and returns its plaintext.
func (m *mockAPIKeyRepo) seed(tenantID uuid.UUID, scope string, mutate func(*domain.APIKeyRecord)) (*domain.APIKeyRecord, string) {
	rec, plain, err := domain.NewAPIKeyRecord(tenantID, "test", scope)
	if err != nil {
		panic(err)
	}
	if mutate != nil {
		mutate(rec)
	}
	m.mu.Lock()
	m.keys[rec.KeyID] = rec
	m.mu.Unlock()
	return rec.Clone(), plain
}

// mockMembershipRepo is an in-memory MembershipRepository.
type mockMembershipRepo struct {
	mu      sync.RWMutex
	members map[string]map[uuid.UUID]*domain.Membership
	err     error
}

func newMockMembershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{members: make(map[string]map[uuid.UUID]*domain.Membership)}
}

func (m *mockMembershipRepo) Exists(_ context.Context, userID string, tenantID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.members[userID][tenantID]
	return ok, nil
}

func (m *mockMembershipRepo) Add(_ context.Context, ms *domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[ms.UserID][ms.TenantID]; ok {
		return domain.ErrMembershipConflict
	}
	if m.members[ms.UserID] == nil {
		m.members[ms.UserID] = make(map[uuid.UUID]*domain.Membership)
	}
	m.members[ms.UserID][ms.TenantID] = ms
	return nil
}

func (m *mockMembershipRepo) Remove(_ context.Context, userID string, tenantID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[userID][tenantID]; !ok {
		return domain.ErrMembershipNotFound
	}
	delete(m.members[userID], tenantID)
	return nil
}

func (m *mockMembershipRepo) ListByUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Membership
	for _, ms := range m.members[userID] {
		out = append(out, ms)
	}
	return out, nil
}

func (m *mockMembershipRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Membership
	for _, byTenant := range m.members {
		if ms, ok := byTenant[tenantID]; ok {
			out = append(out, ms)
		}
	}
	return out, nil
}

// mockValidator is a KeyValidator with fixed tokens.
type mockValidator struct {
	mu     sync.RWMutex
	tokens map[string]*TokenClaims
}

var errUnknownToken = errors.New("token signature is invalid")

func (v *mockValidator) Validate(_ context.Context, token string) (*TokenClaims, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	claims, ok := v.tokens[token]
	if !ok {
		return nil, errUnknownToken
	}
	if !claims.ExpiresAt.IsZero() && time.Now().After(claims.ExpiresAt) {
		return nil, errors.New("token has invalid claims: token is expired")
	}
	return claims, nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
