package polling

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for registry round trips.
type ErrorCategory string

const (
	// CategoryTransport indicates a network or connection level failure
	CategoryTransport ErrorCategory = "transport"

	// CategoryRemoteStatus indicates the registry answered with a non-success status
	CategoryRemoteStatus ErrorCategory = "remote_status"

	// CategoryBadData indicates the response body was not the expected shape
	CategoryBadData ErrorCategory = "bad_data"

	// CategoryChallenge indicates the registry demanded a CAPTCHA
	CategoryChallenge ErrorCategory = "challenge"

	// CategoryNotFound indicates the registry reported no matching records
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryInternal indicates an unexpected internal error
	CategoryInternal ErrorCategory = "internal"
)

// Error wraps registry failures with normalized categorization.
type Error struct {
	Category   ErrorCategory
	Operation  string
	Message    string
	StatusCode int
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Operation, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Operation, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a new categorized error.
func NewError(category ErrorCategory, operation, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
	}
}

// RemoteStatus builds a remote_status error. The remote-provided message wins;
// without one the bare status code is reported.
func RemoteStatus(operation string, statusCode int, remoteMessage string) *Error {
	msg := remoteMessage
	if msg == "" {
		msg = fmt.Sprintf("status code %d", statusCode)
	}
	return &Error{
		Category:   CategoryRemoteStatus,
		Operation:  operation,
		Message:    msg,
		StatusCode: statusCode,
	}
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return GetCategory(err) == CategoryTransport
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}
