package scheme

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy of a rule source.
type ErrorCategory string

const (
	// ErrorTimeout indicates the source took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the source returned an invalid or malformed rule document
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the source is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the scheme is unknown upstream
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// SourceError wraps rule source failures with normalized categorization.
type SourceError struct {
	Category   ErrorCategory
	SchemeID   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("scheme %s [%s]: %s: %v", e.SchemeID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("scheme %s [%s]: %s", e.SchemeID, e.Category, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Underlying
}

// NewSourceError creates a normalized source error.
func NewSourceError(category ErrorCategory, schemeID, message string, underlying error) *SourceError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &SourceError{
		Category:   category,
		SchemeID:   schemeID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorInternal
}

// IsNotFound reports whether the scheme is unknown upstream.
func IsNotFound(err error) bool {
	return GetCategory(err) == ErrorNotFound
}
