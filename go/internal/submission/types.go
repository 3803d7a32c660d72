package submission

import (
	"context"
	"time"

	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
)

// Sender appends one message to the queue and returns the queue-assigned id.
type Sender interface {
	Send(ctx context.Context, msg queue.Message) (string, error)
}

// ManagerLookup resolves a manager principal name from already cached directory data.
type ManagerLookup interface {
	LookupUPN(managerID string) (string, bool)
}

// Recorder persists enqueue outcomes. Recording failures never change a submission result.
type Recorder interface {
	Record(ctx context.Context, outcomes []Outcome) error
}

// Accepted is an entry the queue took.
type Accepted struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
}

// Failed is an entry that must be retried.
type Failed struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// Result is the per-item partition of a bulk submission. OK is false when anything needs
// a retry, which is not the same as the whole submission failing.
type Result struct {
	OK          bool       `json:"ok"`
	SubmittedAt string     `json:"submittedAt"`
	Accepted    []Accepted `json:"accepted"`
	Failed      []Failed   `json:"failed"`
}

// AcceptedIDs lists the ids to drop from the draft collection.
func (r Result) AcceptedIDs() []string {
	ids := make([]string, len(r.Accepted))
	for i, a := range r.Accepted {
		ids[i] = a.ID
	}
	return ids
}

// Outcome is one enqueue attempt as recorded in the ledger.
type Outcome struct {
	EnvelopeID  string
	Type        string
	MessageID   string
	Accepted    bool
	Error       string
	Envelope    any
	SubmittedAt time.Time
}

// OffboardRequest is a single termination request.
type OffboardRequest struct {
	Employee    string  `json:"employee"`
	RequestedBy *string `json:"requestedBy,omitempty"`
	ManagerID   *string `json:"managerId,omitempty"`
	ManagerUPN  *string `json:"managerUpn,omitempty"`
	ManagerName *string `json:"managerName,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type OffboardResult struct {
	OK          bool   `json:"ok"`
	SubmittedAt string `json:"submittedAt"`
	MessageID   string `json:"messageId"`
}
