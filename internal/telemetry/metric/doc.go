// Package metric provides Prometheus metrics for tenantgate.
//
// Metrics include:
//
//   - HTTP request counts and latency
//   - Credential resolution outcomes per credential kind
//   - Tenant resolution decisions
//   - Rate limiter rejections, tracked keys and evictions
//   - Badger storage statistics, when the badger backend is used
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
