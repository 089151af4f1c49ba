// Package metric provides Prometheus metrics for rawhttpd.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the application Registry and text exposition
//   - collector.go: a custom collector reading the live session count
//
// Metrics include:
//
//   - Request counts and latency histograms per surface
//   - Session lifecycle counters and the active session gauge
//   - Connection and parse error counters
//   - Badger storage size (registered by the storage package)
//
// The server exposes them itself on the configured metrics path; no
// net/http handler is involved.
package metric
