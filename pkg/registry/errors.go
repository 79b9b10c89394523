package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used when the server did not supply one.
const (
	ErrCodeConnection = "connection_error"
	ErrCodeNotFound   = "not_found"
	ErrCodeUnknown    = "unknown_error"
	ErrCodeDecode     = "decode_error"
)

// APIError represents a failed call to the registry.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsConnectionError reports whether err is a transport failure (no response).
func IsConnectionError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == ErrCodeConnection
}

// IsNotFound reports whether err is a 404 from the registry.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func notFound(what string, id int, requestID string) *APIError {
	return &APIError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found: %d", what, id),
		RequestID:  requestID,
	}
}
