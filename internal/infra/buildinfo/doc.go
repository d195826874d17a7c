// Package buildinfo exposes build-time version information for the
// tenantgate binaries. Values are injected with ldflags.
package buildinfo
