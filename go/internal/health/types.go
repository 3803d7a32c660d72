package health

import (
	"context"
	"time"

	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
)

// State is what an observer of the queue sees.
type State string

const (
	StateChecking State = "checking"
	StateOK       State = "ok"
	StateDegraded State = "degraded"
	StateError    State = "error"
	StateOffline  State = "offline"
)

// Status is the probe's current view.
type Status struct {
	State     State           `json:"state"`
	CheckedAt time.Time       `json:"checkedAt"`
	Snapshot  *queue.Snapshot `json:"snapshot,omitempty"`
	Detail    string          `json:"detail,omitempty"`
}

// Checker performs one health call. A returned snapshot means the service answered with a
// health body, whatever it says; an error means no usable answer arrived.
type Checker interface {
	Check(ctx context.Context) (queue.Snapshot, error)
}

// Connectivity reports whether the network is available at all.
type Connectivity func() bool

// AlwaysOnline is the Connectivity for callers with no better signal.
func AlwaysOnline() bool { return true }
