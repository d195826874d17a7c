// Package domain defines the core domain models for tenantgate.
package domain

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// API key constants.
const (
	// APIKeyIDPrefix is the prefix for API key record IDs (public).
	APIKeyIDPrefix = "tgak-"

	// APIKeySecretPrefix is the prefix of the plaintext key handed to callers.
	APIKeySecretPrefix = "tgk_"

	// SecretLength is the number of random bytes in a generated key.
	SecretLength = 32

	// MaxNameLength bounds the human-readable key name.
	MaxNameLength = 128

	// MaxScopeEntries bounds the number of scope entries on one key.
	MaxScopeEntries = 64
)

// Authority names derived from credentials.
const (
	// AuthorityAPIKey is granted to every principal resolved from an API key.
	AuthorityAPIKey = "ROLE_API_KEY"

	// ScopeAuthorityPrefix prefixes authorities derived from scope entries.
	ScopeAuthorityPrefix = "SCOPE_"
)

// APIKeyRecord is a stored API key. Only the SHA-256 digest of the key is
// kept; lookups go through that digest.
type APIKeyRecord struct {
	// KeyID is the public identifier, tgak-{ulid_lowercase}.
	KeyID string `json:"key_id"`

	// TenantID is the tenant that owns the key. Requests authenticated by
	// the key are scoped to exactly this tenant.
	TenantID uuid.UUID `json:"tenant_id"`

	Name string `json:"name"`

	// SecretHash is the hex encoded SHA-256 of the plaintext key.
	SecretHash string `json:"secret_hash"`

	// Scope is a space separated list of scope entries.
	Scope string `json:"scope,omitempty"`

	Active bool `json:"active"`

	// ExpiresAt is the expiry time (Unix ms), 0 = never expires.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// LastUsedAt is the last successful authentication (Unix ms).
	LastUsedAt int64 `json:"last_used_at,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// NewAPIKeyRecord creates an active key for tenantID.
// It returns the record and the plaintext key; the plaintext is not
// recoverable afterwards.
func NewAPIKeyRecord(tenantID uuid.UUID, name, scope string) (*APIKeyRecord, string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(timeNow()), entropy)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	secretBytes := make([]byte, SecretLength)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}
	plain := APIKeySecretPrefix + base64.RawURLEncoding.EncodeToString(secretBytes)

	rec := &APIKeyRecord{
		KeyID:      APIKeyIDPrefix + strings.ToLower(id.String()),
		TenantID:   tenantID,
		Name:       name,
		SecretHash: HashAPIKey(plain),
		Scope:      NormalizeScope(scope),
		Active:     true,
		CreatedAt:  currentTimeMillis(),
	}
	if err := rec.Validate(); err != nil {
		return nil, "", err
	}
	return rec, plain, nil
}

// HashAPIKey returns the lookup digest of a plaintext key: unsalted SHA-256,
// hex encoded. The digest must be deterministic so it can serve as an
// exact-match index.
func HashAPIKey(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// SHA-256("abc") from FIPS 180-2, appendix B.1.
var hashSelfTestVector = []byte{
	0xba, 0x78, 0x16, 0xbf, 0x8f, 0x01, 0xcf, 0xea, 0x41, 0x41, 0x40, 0xde, 0x5d, 0xae, 0x22, 0x23,
	0xb0, 0x03, 0x61, 0xa3, 0x96, 0x17, 0x7a, 0x9c, 0xb4, 0x10, 0xff, 0x61, 0xf2, 0x00, 0x15, 0xad,
}

// VerifyKeyHash checks at startup that the key digest primitive produces the
// expected output. A failure is a deployment defect, not a request error.
func VerifyKeyHash() error {
	sum := sha256.Sum256([]byte("abc"))
	if !bytes.Equal(sum[:], hashSelfTestVector) {
		return ErrHashUnavailable.WithDetails("sha256 self-test mismatch")
	}
	return nil
}

// NormalizeScope collapses whitespace and removes duplicate entries.
func NormalizeScope(scope string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range strings.Fields(scope) {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return strings.Join(out, " ")
}

// Scopes returns the scope entries of the key.
func (k *APIKeyRecord) Scopes() []string {
	return strings.Fields(k.Scope)
}

// Authorities derives the authorities granted by the key: the API key role
// plus one SCOPE_ authority per scope entry.
func (k *APIKeyRecord) Authorities() []string {
	scopes := k.Scopes()
	out := make([]string, 0, len(scopes)+1)
	out = append(out, AuthorityAPIKey)
	for _, s := range scopes {
		out = append(out, ScopeAuthorityPrefix+s)
	}
	return out
}

// IsExpired reports whether the expiry time has passed.
func (k *APIKeyRecord) IsExpired() bool {
	if k.ExpiresAt == 0 {
		return false
	}
	return currentTimeMillis() > k.ExpiresAt
}

// IsUsable reports whether the key is active and not expired.
func (k *APIKeyRecord) IsUsable() bool {
	return k.Active && !k.IsExpired()
}

// Touch sets LastUsedAt to now.
func (k *APIKeyRecord) Touch() {
	k.LastUsedAt = currentTimeMillis()
}

// ExpiresAtTime returns ExpiresAt as time.Time, zero when the key never expires.
func (k *APIKeyRecord) ExpiresAtTime() time.Time {
	if k.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(k.ExpiresAt)
}

// LastUsedAtTime returns LastUsedAt as time.Time, zero if never used.
func (k *APIKeyRecord) LastUsedAtTime() time.Time {
	if k.LastUsedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(k.LastUsedAt)
}

// IsValidAPIKeyID checks the tgak-{ulid} format.
func IsValidAPIKeyID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, APIKeyIDPrefix) {
		return false
	}
	if len(id) != len(APIKeyIDPrefix)+ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(APIKeyIDPrefix):]))
	return err == nil
}

// Validate checks the record fields.
func (k *APIKeyRecord) Validate() error {
	var violations []string

	if !IsValidAPIKeyID(k.KeyID) {
		violations = append(violations, "key_id format invalid")
	}
	if k.TenantID == uuid.Nil {
		violations = append(violations, "tenant_id is required")
	}
	if len(k.SecretHash) != sha256.Size*2 {
		violations = append(violations, "secret_hash must be a hex sha256 digest")
	}
	if len(k.Name) > MaxNameLength {
		violations = append(violations, "name exceeds 128 characters")
	}
	if len(k.Scopes()) > MaxScopeEntries {
		violations = append(violations, "scope exceeds 64 entries")
	}
	if k.ExpiresAt < 0 {
		violations = append(violations, "expires_at must not be negative")
	}

	if len(violations) > 0 {
		return ErrAPIKeyValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone returns a copy of the record.
func (k *APIKeyRecord) Clone() *APIKeyRecord {
	clone := *k
	return &clone
}

// currentTimeMillis returns the current Unix time in milliseconds.
var currentTimeMillis = func() int64 {
	return timeNow().UnixMilli()
}

// timeNow is a hook for testing.
var timeNow = time.Now
