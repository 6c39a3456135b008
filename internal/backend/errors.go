package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("backend rejected the credential")
	ErrRejected     = errors.New("backend reported failure")
)

// APIError carries the status and the server-derived message of a failed
// call. Message comes from the envelope's "message" field, else from the
// framework's "detail" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status < http.StatusBadRequest:
		return ErrRejected
	default:
		return nil
	}
}

// MessageOf extracts the user-facing message from err, or returns fallback
// when err carries none (network failures, timeouts).
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
