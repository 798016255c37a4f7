package source

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedResponse is wrapped when a response body does not have the expected shape
var ErrMalformedResponse = errors.New("malformed API response")

// RateLimitError is returned when the API answers 403 or 429.
// The whole crawl run must stop when this is seen.
type RateLimitError struct {
	URL        string
	StatusCode int
	ResetAt    time.Time // zero when the API did not say
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limit exceeded (status %d) for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("rate limit exceeded (status %d) for %s, resets at %s",
		e.StatusCode, e.URL, e.ResetAt.Format(time.RFC3339))
}

// TransportError covers every other failed request: network errors,
// unexpected status codes and bodies that fail to decode.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err is, or wraps, a RateLimitError
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
