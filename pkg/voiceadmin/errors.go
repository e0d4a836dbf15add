package voiceadmin

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the API rejects the access token (HTTP 401).
	ErrUnauthorized = errors.New("voiceadmin: unauthorized")

	// ErrNotFound is returned when the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("voiceadmin: not found")
)

// APIError is any other non-2xx response from the Voice Admin API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voiceadmin: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is lets APIError satisfy errors.Is for the status-specific sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
