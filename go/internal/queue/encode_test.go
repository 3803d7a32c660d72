package queue

import (
	"errors"
	"strings"
	"testing"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	start := "2024-01-05"
	upn := "jane@example.com"
	env := models.EntryEnvelope{
		Type:        models.EnvelopeTypeEntry,
		Schema:      models.EnvelopeSchema,
		SubmittedAt: "2024-01-05T10:00:00Z",
		ID:          "abc",
		Data: models.EntryPayload{
			ID:           "abc",
			FirstName:    "Zoë",
			LastName:     "O'Neil",
			Title:        "Engineer",
			Department:   "R&D",
			BusinessUnit: "Core",
			FullTime:     true,
			StartDate:    &start,
			ManagerID:    "m1",
			ManagerUPN:   &upn,
		},
	}

	encoded, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got models.EntryEnvelope
	if err := Decode(encoded, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != env.ID || got.Type != env.Type || got.Data.FirstName != "Zoë" || got.Data.LastName != "O'Neil" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Data.StartDate == nil || *got.Data.StartDate != start {
		t.Fatalf("start date lost: %+v", got.Data.StartDate)
	}
	if got.Data.ManagerUPN == nil || *got.Data.ManagerUPN != upn {
		t.Fatalf("manager upn lost: %+v", got.Data.ManagerUPN)
	}
}

func TestCheckSizeBoundary(t *testing.T) {
	if err := CheckSize(strings.Repeat("A", MaxMessageSize)); err != nil {
		t.Fatalf("message of exactly %d bytes rejected: %v", MaxMessageSize, err)
	}
	err := CheckSize(strings.Repeat("A", MaxMessageSize+1))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestEncodeRejectsOversizedEnvelope(t *testing.T) {
	_, err := Encode(map[string]string{"notes": strings.Repeat("x", MaxMessageSize)})
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}
