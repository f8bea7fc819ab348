// Package errors provides domain-specific error types and sentinel errors
// shared across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrInvalidEnrollment indicates the enrollment number failed validation.
	ErrInvalidEnrollment = errors.New("invalid enrollment number")

	// ErrInvalidProgram indicates the programme code failed validation.
	ErrInvalidProgram = errors.New("invalid programme code")

	// ErrPortalUnreachable indicates every transport variant failed.
	ErrPortalUnreachable = errors.New("unable to reach portal")

	// ErrNoRecords indicates extraction produced no valid records.
	ErrNoRecords = errors.New("no records found")

	// ErrPortalServerError indicates the portal returned a page that
	// declares an internal error in its body.
	ErrPortalServerError = errors.New("portal reported a server error")

	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the user lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrSessionExpired indicates a conversation session is no longer active.
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// PortalError represents a failure talking to the academic portal.
type PortalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *PortalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("portal error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("portal error (url=%s): %v", e.URL, e.Err)
}

func (e *PortalError) Unwrap() error {
	return e.Err
}

// NewPortalError creates a new portal error.
func NewPortalError(url string, statusCode int, err error) *PortalError {
	return &PortalError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}
