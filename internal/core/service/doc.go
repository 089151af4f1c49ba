// Package service provides domain services for rawhttpd.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - UserService: registration, password authentication and credential
//     changes, with bcrypt password hashing
//
// Services are stateless and safe for concurrent use.
package service
