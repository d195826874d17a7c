// Package tokenverify validates bearer JWTs for the token resolver.
//
// Key material is either a shared HMAC secret or a PEM encoded RSA, ECDSA or
// Ed25519 public key. Only the configured algorithms are accepted, an
// expiry claim is required, and issuer and audience are checked when
// configured.
package tokenverify
