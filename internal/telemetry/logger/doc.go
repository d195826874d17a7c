// Package logger provides structured logging for tenantgate.
//
// It wraps log/slog with:
//
//   - JSON and text output formats
//   - A process wide level that can be changed at runtime
//   - Redaction of credentials (bearer tokens, API keys, secrets)
//   - Request ID propagation from context.Context into every record
package logger
