package db

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/sqlc-dev/pqtype"
)

//go:embed schema.sql
var Schema string

// EnsureSchema creates the ledger table when it does not exist yet.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, Schema)
	return err
}

const insertSubmission = `
INSERT INTO submission_ledger (envelope_id, envelope_type, message_id, accepted, error, envelope, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, envelope_id, envelope_type, message_id, accepted, error, envelope, submitted_at, recorded_at
`

type InsertSubmissionParams struct {
	EnvelopeID   string
	EnvelopeType string
	MessageID    sql.NullString
	Accepted     bool
	Error        sql.NullString
	Envelope     pqtype.NullRawMessage
	SubmittedAt  time.Time
}

func (q *Queries) InsertSubmission(ctx context.Context, arg InsertSubmissionParams) (SubmissionLedger, error) {
	row := q.db.QueryRowContext(ctx, insertSubmission,
		arg.EnvelopeID,
		arg.EnvelopeType,
		arg.MessageID,
		arg.Accepted,
		arg.Error,
		arg.Envelope,
		arg.SubmittedAt,
	)
	var i SubmissionLedger
	err := row.Scan(
		&i.ID,
		&i.EnvelopeID,
		&i.EnvelopeType,
		&i.MessageID,
		&i.Accepted,
		&i.Error,
		&i.Envelope,
		&i.SubmittedAt,
		&i.RecordedAt,
	)
	return i, err
}

const listSubmissions = `
SELECT id, envelope_id, envelope_type, message_id, accepted, error, envelope, submitted_at, recorded_at
FROM submission_ledger
WHERE ($1::text IS NULL OR envelope_type = $1)
  AND ($2::text IS NULL OR envelope_id = $2)
  AND (NOT $3::boolean OR accepted = false)
ORDER BY submitted_at DESC, id DESC
LIMIT $4
`

type ListSubmissionsParams struct {
	EnvelopeType sql.NullString
	EnvelopeID   sql.NullString
	OnlyFailed   bool
	Limit        int32
}

func (q *Queries) ListSubmissions(ctx context.Context, arg ListSubmissionsParams) ([]SubmissionLedger, error) {
	rows, err := q.db.QueryContext(ctx, listSubmissions,
		arg.EnvelopeType,
		arg.EnvelopeID,
		arg.OnlyFailed,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SubmissionLedger
	for rows.Next() {
		var i SubmissionLedger
		if err := rows.Scan(
			&i.ID,
			&i.EnvelopeID,
			&i.EnvelopeType,
			&i.MessageID,
			&i.Accepted,
			&i.Error,
			&i.Envelope,
			&i.SubmittedAt,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
