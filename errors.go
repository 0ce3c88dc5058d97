package askpablos

import (
	"errors"
	"fmt"
)

// ErrorType classifies an *APIError.
type ErrorType string

const (
	// ErrorTypeValidation marks local pre-flight failures: the caller's input
	// never reached the network.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeAuthentication marks credential problems, either the local
	// eager check at construction or a backend 401/403 rejection.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeConnection marks transport-level failures: DNS, refused
	// connection, or timeout expiry before any response arrived.
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeResponse marks a reachable backend returning a non-success
	// status not attributable to authentication.
	ErrorTypeResponse ErrorType = "response"
)

// APIError is the common root of every failure the client reports. Callers
// catch the specific kind they care about with errors.As plus the Type field,
// or with the Is* predicates below.
type APIError struct {
	Type    ErrorType
	Message string

	// StatusCode carries the upstream HTTP status when the backend answered.
	StatusCode int

	// RequestID correlates the failure with the X-Request-ID sent upstream.
	RequestID string

	Cause error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("askpablos: %s: %s", e.Type, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("%s [request %s]", msg, e.RequestID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches two *APIError values by Type so that
// errors.Is(err, &APIError{Type: ErrorTypeConnection}) works.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return other.Type == "" || other.Type == e.Type
}

// NewValidationError reports malformed caller input.
func NewValidationError(format string, args ...any) *APIError {
	return &APIError{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewAuthenticationError reports a credential problem.
func NewAuthenticationError(message string) *APIError {
	return &APIError{Type: ErrorTypeAuthentication, Message: message}
}

// NewConnectionError reports a transport failure with its cause.
func NewConnectionError(message string, cause error) *APIError {
	return &APIError{Type: ErrorTypeConnection, Message: message, Cause: cause}
}

// NewResponseError reports a non-success backend response.
func NewResponseError(message string, statusCode int) *APIError {
	return &APIError{Type: ErrorTypeResponse, Message: message, StatusCode: statusCode}
}

func errorIsType(err error, t ErrorType) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}

// IsValidationError reports whether err is a pre-flight validation failure.
func IsValidationError(err error) bool { return errorIsType(err, ErrorTypeValidation) }

// IsAuthenticationError reports whether err is a credential failure.
func IsAuthenticationError(err error) bool { return errorIsType(err, ErrorTypeAuthentication) }

// IsConnectionError reports whether err is a transport failure.
func IsConnectionError(err error) bool { return errorIsType(err, ErrorTypeConnection) }

// IsResponseError reports whether err is a non-success backend response.
func IsResponseError(err error) bool { return errorIsType(err, ErrorTypeResponse) }
