package config

import "strings"

// Sanitize returns a copy of the config with secrets masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Auth.JWT.HMACSecret != "" {
		sanitized.Auth.JWT.HMACSecret = maskSecret(sanitized.Auth.JWT.HMACSecret)
	}
	if sanitized.RateLimit.Redis.Password != "" {
		sanitized.RateLimit.Redis.Password = maskSecret(sanitized.RateLimit.Redis.Password)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
