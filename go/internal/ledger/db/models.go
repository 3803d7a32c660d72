package db

import (
	"database/sql"
	"time"

	"github.com/sqlc-dev/pqtype"
)

type SubmissionLedger struct {
	ID           int64
	EnvelopeID   string
	EnvelopeType string
	MessageID    sql.NullString
	Accepted     bool
	Error        sql.NullString
	Envelope     pqtype.NullRawMessage
	SubmittedAt  time.Time
	RecordedAt   time.Time
}
