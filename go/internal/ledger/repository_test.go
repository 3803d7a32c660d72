package ledger

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/reckman-cloud/employee-admin-app/go/internal/ledger/db"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

type memQuerier struct {
	rows []db.SubmissionLedger
	last db.ListSubmissionsParams
}

func (m *memQuerier) EnsureSchema(ctx context.Context) error { return nil }

func (m *memQuerier) InsertSubmission(ctx context.Context, arg db.InsertSubmissionParams) (db.SubmissionLedger, error) {
	row := db.SubmissionLedger{
		ID:           int64(len(m.rows) + 1),
		EnvelopeID:   arg.EnvelopeID,
		EnvelopeType: arg.EnvelopeType,
		MessageID:    arg.MessageID,
		Accepted:     arg.Accepted,
		Error:        arg.Error,
		Envelope:     arg.Envelope,
		SubmittedAt:  arg.SubmittedAt,
		RecordedAt:   arg.SubmittedAt,
	}
	m.rows = append(m.rows, row)
	return row, nil
}

func (m *memQuerier) ListSubmissions(ctx context.Context, arg db.ListSubmissionsParams) ([]db.SubmissionLedger, error) {
	m.last = arg
	return m.rows, nil
}

func TestRecordAndList(t *testing.T) {
	q := &memQuerier{}
	repo := NewRepositoryWithQuerier(q)
	at := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	err := repo.Record(context.Background(), []submission.Outcome{
		{EnvelopeID: "a", Type: "employee.entry", MessageID: "q-1", Accepted: true, Envelope: map[string]string{"id": "a"}, SubmittedAt: at},
		{EnvelopeID: "b", Type: "employee.entry", Error: "message too large", SubmittedAt: at},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if q.last.Limit != DefaultLimit || q.last.EnvelopeType.Valid {
		t.Fatalf("unexpected list params %+v", q.last)
	}

	a, b := records[0], records[1]
	if !a.Accepted || a.MessageID == nil || *a.MessageID != "q-1" || a.Error != nil {
		t.Fatalf("unexpected accepted record %+v", a)
	}
	var env map[string]string
	if err := json.Unmarshal(a.Envelope, &env); err != nil || env["id"] != "a" {
		t.Fatalf("envelope not stored: %s (%v)", a.Envelope, err)
	}
	if b.Accepted || b.MessageID != nil || b.Error == nil || *b.Error != "message too large" || b.Envelope != nil {
		t.Fatalf("unexpected failed record %+v", b)
	}
}
