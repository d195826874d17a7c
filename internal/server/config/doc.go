// Package config defines the tenantgate-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation run before any component starts
//   - sanitize.go: Copy with secrets masked, for logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// TENANTGATE_ environment variables and flags.
package config
