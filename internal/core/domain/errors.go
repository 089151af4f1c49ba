package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business error with a stable machine-readable code.
// The code is what API clients see in the "error" field of a JSON error body.
type DomainError struct {
	Code    string // Error code (e.g., "user_already_exists")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// User Errors
// ============================================================================

var (
	// ErrInvalidInput indicates a missing or malformed request field.
	ErrInvalidInput = NewDomainError("invalid_input", "Invalid input provided")

	// ErrAuthenticationFailed indicates unknown user or wrong password.
	ErrAuthenticationFailed = NewDomainError("authentication_failed", "Authentication failed")

	// ErrUserAlreadyExists indicates the username is taken.
	ErrUserAlreadyExists = NewDomainError("user_already_exists", "User already exists")

	// ErrEmailAlreadyExists indicates the email is registered to another user.
	ErrEmailAlreadyExists = NewDomainError("email_already_exists", "Email already exists")

	// ErrUserNotFound indicates no user has the given id.
	ErrUserNotFound = NewDomainError("user_not_found", "User not found")
)

// ============================================================================
// Session Errors
// ============================================================================

var (
	// ErrSessionNotFound indicates the request carries no active session.
	ErrSessionNotFound = NewDomainError("session_not_found", "No valid session found")

	// ErrSessionUserMismatch indicates the target user is not the session owner.
	ErrSessionUserMismatch = NewDomainError("session_user_mismatch", "The provided user does not match the current session user")
)

// ============================================================================
// System Errors
// ============================================================================

var (
	// ErrPathNotFound indicates no route matches the request.
	ErrPathNotFound = NewDomainError("path_not_found", "The requested path was not found")

	// ErrDatabase indicates a storage layer failure.
	ErrDatabase = NewDomainError("database_error", "Database error")

	// ErrBadRequest indicates a request that could not be parsed.
	ErrBadRequest = NewDomainError("bad_request", "Bad request")

	// ErrInternal indicates an unexpected server failure.
	ErrInternal = NewDomainError("internal_error", "Internal server error")

	// ErrUnknown is used for errors without a known code.
	ErrUnknown = NewDomainError("unknown_error", "Unknown error")
)
