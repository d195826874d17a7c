// Package tlsroots loads TLS material for tenantgate.
//
//   - roots.go: CA pools and client TLS configs for tenantgate-cli
//   - watcher.go: Server key pair with hot reload via fsnotify
package tlsroots
