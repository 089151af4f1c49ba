// Package domain defines the core domain models for rawhttpd.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - User: registered account and its credential validation rules
//   - Errors: business error codes shared by services and handlers
package domain
