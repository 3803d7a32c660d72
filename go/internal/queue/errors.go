package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrMessageTooLarge is returned before any I/O when an encoded message exceeds MaxMessageSize.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrTimeout is returned when a queue call exceeds its deadline.
	ErrTimeout = errors.New("queue call timed out")
)

// Reasons reported when the queue cannot be used.
const (
	ReasonMissingConfig    = "missing-config"
	ReasonQueueNotFound    = "queue-not-found"
	ReasonConnectionFailed = "queue-connection-failed"
)

// QueueUnavailableError distinguishes "not configured" from "queue missing" from
// "cannot connect or not permitted".
type QueueUnavailableError struct {
	Reason string
	Err    error
}

func (e *QueueUnavailableError) Error() string {
	if e.Err == nil {
		return "queue unavailable: " + e.Reason
	}
	return fmt.Sprintf("queue unavailable: %s: %v", e.Reason, e.Err)
}

func (e *QueueUnavailableError) Unwrap() error {
	return e.Err
}

// IsReason reports whether err is a QueueUnavailableError with the given reason.
func IsReason(err error, reason string) bool {
	var qe *QueueUnavailableError
	return errors.As(err, &qe) && qe.Reason == reason
}
