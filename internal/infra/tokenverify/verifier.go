package tokenverify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// Config holds verifier configuration.
type Config struct {
	// HMACSecret is a shared secret for HS* algorithms.
	HMACSecret string

	// PublicKeyFile is a PEM public key for RS*, PS*, ES* or EdDSA.
	PublicKeyFile string

	// Algorithms restricts accepted "alg" values. Defaults to HS256 for a
	// secret, RS256, ES256 or EdDSA for a public key, by key type.
	Algorithms []string

	Issuer   string
	Audience string

	// Leeway is the allowed clock skew for exp, nbf and iat.
	Leeway time.Duration
}

// Claims are the JWT claims tenantgate reads.
type Claims struct {
	jwt.RegisteredClaims
	Email       string           `json:"email,omitempty"`
	Scope       string           `json:"scope,omitempty"`
	Scp         jwt.ClaimStrings `json:"scp,omitempty"`
	Roles       jwt.ClaimStrings `json:"roles,omitempty"`
	Authorities jwt.ClaimStrings `json:"authorities,omitempty"`
}

// Verifier implements service.KeyValidator.
type Verifier struct {
	key    any
	parser *jwt.Parser
}

var _ service.KeyValidator = (*Verifier)(nil)

// New loads key material and builds a Verifier. Errors are configuration
// errors and should stop startup.
func New(cfg Config) (*Verifier, error) {
	key, family, err := loadKey(cfg)
	if err != nil {
		return nil, err
	}

	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{defaultAlgorithm(family)}
	}
	for _, alg := range algs {
		if jwt.GetSigningMethod(alg) == nil {
			return nil, fmt.Errorf("unsupported jwt algorithm %q", alg)
		}
		if algorithmFamily(alg) != family {
			return nil, fmt.Errorf("jwt algorithm %q does not match %s key material", alg, family)
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{key: key, parser: jwt.NewParser(opts...)}, nil
}

// Validate verifies tokenString and maps its claims.
func (v *Verifier) Validate(_ context.Context, tokenString string) (*service.TokenClaims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired.WithDetails(err.Error()).WithCause(err)
		}
		return nil, domain.ErrTokenInvalid.WithDetails(err.Error()).WithCause(err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, domain.ErrTokenInvalid.WithDetails("missing subject")
	}

	out := &service.TokenClaims{
		Subject:     claims.Subject,
		Email:       claims.Email,
		Authorities: claims.authorities(),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// authorities merges scope entries (as SCOPE_x) with roles and authorities,
// keeping first occurrence order.
func (c *Claims) authorities() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(a string) {
		if a == "" {
			return
		}
		if _, dup := seen[a]; dup {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	for _, s := range strings.Fields(c.Scope) {
		add(domain.ScopeAuthorityPrefix + s)
	}
	for _, s := range c.Scp {
		for _, f := range strings.Fields(s) {
			add(domain.ScopeAuthorityPrefix + f)
		}
	}
	for _, r := range c.Roles {
		add(r)
	}
	for _, a := range c.Authorities {
		add(a)
	}
	return out
}

const (
	familyHMAC    = "hmac"
	familyRSA     = "rsa"
	familyECDSA   = "ecdsa"
	familyEd25519 = "ed25519"
)

func loadKey(cfg Config) (any, string, error) {
	switch {
	case cfg.HMACSecret != "" && cfg.PublicKeyFile != "":
		return nil, "", errors.New("configure either a jwt hmac secret or a public key file, not both")
	case cfg.HMACSecret != "":
		if len(cfg.HMACSecret) < 32 {
			return nil, "", errors.New("jwt hmac secret must be at least 32 bytes")
		}
		return []byte(cfg.HMACSecret), familyHMAC, nil
	case cfg.PublicKeyFile != "":
		data, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, "", fmt.Errorf("read jwt public key: %w", err)
		}
		if key, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
			return key, familyRSA, nil
		}
		if key, err := jwt.ParseECPublicKeyFromPEM(data); err == nil {
			return key, familyECDSA, nil
		}
		if key, err := jwt.ParseEdPublicKeyFromPEM(data); err == nil {
			return key, familyEd25519, nil
		}
		return nil, "", fmt.Errorf("jwt public key %s is not an RSA, ECDSA or Ed25519 PEM public key", cfg.PublicKeyFile)
	default:
		return nil, "", errors.New("no jwt key material configured")
	}
}

func algorithmFamily(alg string) string {
	switch {
	case strings.HasPrefix(alg, "HS"):
		return familyHMAC
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		return familyRSA
	case strings.HasPrefix(alg, "ES"):
		return familyECDSA
	case alg == "EdDSA":
		return familyEd25519
	default:
		return ""
	}
}

func defaultAlgorithm(family string) string {
	switch family {
	case familyRSA:
		return "RS256"
	case familyECDSA:
		return "ES256"
	case familyEd25519:
		return "EdDSA"
	default:
		return "HS256"
	}
}
