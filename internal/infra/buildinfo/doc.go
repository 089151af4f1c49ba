// Package buildinfo provides build information for rawhttpd.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash, falling back to the recorded VCS revision
//   - BuildTime: Build timestamp
//
// The Go version and platform are taken from the running binary.
//
// Usage:
//
//	go build -ldflags "-X buildinfo.Version=1.0.0 -X buildinfo.Commit=abc123"
package buildinfo
