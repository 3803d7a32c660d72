package clients

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a remote call exceeds its deadline.
var ErrTimeout = errors.New("request timed out")

// StatusError is a non-2xx response from a remote API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("API returned status code: %d, response: %s", e.StatusCode, body)
}
