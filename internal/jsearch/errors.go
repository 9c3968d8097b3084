package jsearch

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("jsearch: API key not configured")
	ErrRateLimited   = errors.New("jsearch: rate limit exceeded")
	ErrUnauthorized  = errors.New("jsearch: invalid API key")
	ErrTimeout       = errors.New("jsearch: search timed out")
)

// APIError is returned for any other non-200 response.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jsearch: API error: %d", e.StatusCode)
}
