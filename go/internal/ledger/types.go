package ledger

import (
	"encoding/json"
	"time"
)

// DefaultLimit caps list queries when the caller gives no limit.
const DefaultLimit = 100

// Record is one enqueue attempt as stored in the ledger.
type Record struct {
	ID           int64           `json:"id"`
	EnvelopeID   string          `json:"envelopeId"`
	EnvelopeType string          `json:"envelopeType"`
	MessageID    *string         `json:"messageId"`
	Accepted     bool            `json:"accepted"`
	Error        *string         `json:"error"`
	Envelope     json.RawMessage `json:"envelope,omitempty"`
	SubmittedAt  time.Time       `json:"submittedAt"`
	RecordedAt   time.Time       `json:"recordedAt"`
}

// Filter narrows a ledger listing.
type Filter struct {
	EnvelopeType *string `json:"envelopeType,omitempty"`
	EnvelopeID   *string `json:"envelopeId,omitempty"`
	OnlyFailed   bool    `json:"onlyFailed,omitempty"`
	Limit        int     `json:"limit,omitempty"`
}

type ListSubmissionsRequest struct {
	Filter Filter `json:"filter"`
}

type ListSubmissionsResponse struct {
	Records []Record `json:"records"`
}
