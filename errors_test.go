package askpablos

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	validation := NewValidationError("bad input")
	auth := NewAuthenticationError("bad key")
	conn := NewConnectionError("unreachable", errors.New("dial refused"))
	resp := NewResponseError("server blew up", 500)

	if !IsValidationError(validation) || IsValidationError(auth) {
		t.Error("IsValidationError misclassifies")
	}
	if !IsAuthenticationError(auth) || IsAuthenticationError(conn) {
		t.Error("IsAuthenticationError misclassifies")
	}
	if !IsConnectionError(conn) || IsConnectionError(resp) {
		t.Error("IsConnectionError misclassifies")
	}
	if !IsResponseError(resp) || IsResponseError(validation) {
		t.Error("IsResponseError misclassifies")
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("request failed: %w", NewResponseError("boom", 503))
	if !IsResponseError(wrapped) {
		t.Error("predicate must unwrap")
	}

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find *APIError")
	}
	if apiErr.StatusCode != 503 {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
}

func TestErrorMessageFormat(t *testing.T) {
	t.Parallel()

	err := NewResponseError("internal error", 500)
	err.RequestID = "req-1"
	msg := err.Error()

	for _, want := range []string{"askpablos:", "response", "internal error", "status 500", "req-1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestConnectionErrorUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewConnectionError("failed to connect", cause)
	if !errors.Is(err, cause) {
		t.Error("cause must be reachable through Unwrap")
	}
}
