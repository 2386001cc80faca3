package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionFailed is returned when the document extraction collaborator fails or returns garbage
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrUnknownCategory is returned when a category name is not part of the closed set
	ErrUnknownCategory = errors.New("unknown business category")

	// ErrProductNotFound is returned when a catalog lookup misses
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrSessionNotFound is returned when a session ID is unknown or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned when an event is not allowed in the current session state
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrStaleResponse is returned when a pipeline result arrives for a superseded request token
	ErrStaleResponse = errors.New("stale pipeline response discarded")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError reports invalid numeric or textual input before any computation runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err wraps a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
