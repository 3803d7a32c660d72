package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/reckman-cloud/employee-admin-app/go/internal/ledger/db"
	"github.com/reckman-cloud/employee-admin-app/go/internal/sqlutil"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

// Querier defines what the repository needs from the database layer.
type Querier interface {
	EnsureSchema(ctx context.Context) error
	InsertSubmission(ctx context.Context, arg db.InsertSubmissionParams) (db.SubmissionLedger, error)
	ListSubmissions(ctx context.Context, arg db.ListSubmissionsParams) ([]db.SubmissionLedger, error)
}

// Repository stores submission outcomes in Postgres.
type Repository struct {
	database *sql.DB
	queries  Querier
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{database: database, queries: db.New(database)}
}

// NewRepositoryWithQuerier is used where no transaction support is needed.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{queries: q}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.queries.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// Record implements submission.Recorder. All outcomes of one call land in one transaction.
func (r *Repository) Record(ctx context.Context, outcomes []submission.Outcome) error {
	params := make([]db.InsertSubmissionParams, 0, len(outcomes))
	for _, o := range outcomes {
		p, err := r.outcomeToParams(o)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	insert := func(q Querier) error {
		for _, p := range params {
			if _, err := q.InsertSubmission(ctx, p); err != nil {
				return fmt.Errorf("failed to insert ledger record: %w", err)
			}
		}
		return nil
	}

	if r.database == nil {
		return insert(r.queries)
	}
	err := sqlutil.Run(ctx, r.database, func(tx *sql.Tx) *db.Queries {
		return db.New(tx)
	}, func(q *db.Queries) error {
		return insert(q)
	})
	if err != nil {
		return err
	}
	log.Debug().Int("records", len(params)).Msg("recorded submission outcomes")
	return nil
}

// List returns the newest records first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = DefaultLimit
	}
	rows, err := r.queries.ListSubmissions(ctx, db.ListSubmissionsParams{
		EnvelopeType: sqlutil.ToSqlString(f.EnvelopeType),
		EnvelopeID:   sqlutil.ToSqlString(f.EnvelopeID),
		OnlyFailed:   f.OnlyFailed,
		Limit:        int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = r.dbRecordToModel(row)
	}
	return records, nil
}

func (r *Repository) outcomeToParams(o submission.Outcome) (db.InsertSubmissionParams, error) {
	var envelope pqtype.NullRawMessage
	if o.Envelope != nil {
		raw, err := json.Marshal(o.Envelope)
		if err != nil {
			return db.InsertSubmissionParams{}, fmt.Errorf("failed to marshal envelope: %w", err)
		}
		envelope = pqtype.NullRawMessage{RawMessage: raw, Valid: len(raw) > 0}
	}

	return db.InsertSubmissionParams{
		EnvelopeID:   o.EnvelopeID,
		EnvelopeType: o.Type,
		MessageID:    sqlutil.ToSqlString(&o.MessageID),
		Accepted:     o.Accepted,
		Error:        sqlutil.ToSqlString(&o.Error),
		Envelope:     envelope,
		SubmittedAt:  o.SubmittedAt,
	}, nil
}

func (r *Repository) dbRecordToModel(row db.SubmissionLedger) Record {
	rec := Record{
		ID:           row.ID,
		EnvelopeID:   row.EnvelopeID,
		EnvelopeType: row.EnvelopeType,
		MessageID:    sqlutil.FromSqlStringPtr(row.MessageID),
		Accepted:     row.Accepted,
		Error:        sqlutil.FromSqlStringPtr(row.Error),
		SubmittedAt:  row.SubmittedAt,
		RecordedAt:   row.RecordedAt,
	}
	if row.Envelope.Valid {
		rec.Envelope = row.Envelope.RawMessage
	}
	return rec
}
