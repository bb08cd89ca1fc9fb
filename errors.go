package topgg

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when the requested bot or user does not exist.
	ErrNotFound = errors.New("topgg: not found")

	// ErrUnauthorized is returned when the API rejects the token. Check the
	// token copied from the website; it is not recoverable at runtime.
	ErrUnauthorized = errors.New("topgg: invalid token")

	// ErrNoStats is returned by PostStats when the payload carries no server
	// count. The API silently ignores such posts, so the client refuses them.
	ErrNoStats = errors.New("topgg: stats have no server count")
)

// RatelimitError is returned when the API responds with 429. RetryAfter is
// how long the client should back off before the next request.
type RatelimitError struct {
	RetryAfter time.Duration
}

func (e *RatelimitError) Error() string {
	return fmt.Sprintf("topgg: ratelimited, retry after %s", e.RetryAfter)
}

// APIError is returned for unexpected non-2xx responses that do not map to
// one of the sentinel errors above.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("topgg: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("topgg: unexpected status %d: %s", e.StatusCode, e.Message)
}
