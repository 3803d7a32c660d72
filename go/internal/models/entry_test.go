package models

import (
	"encoding/json"
	"testing"
)

func TestEntryUnmarshalToleratesOldRecords(t *testing.T) {
	raw := `{"id":"a","firstName":"Ada","fullTime":"yes","managerId":"m1"}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.FullTime != nil {
		t.Fatalf("expected non-boolean fullTime to be dropped, got %v", *e.FullTime)
	}
	if !e.IsFullTime() {
		t.Fatalf("expected unset fullTime to default to full time")
	}
	if e.Meta.Schema != SchemaV3 {
		t.Fatalf("expected schema to default to %d, got %d", SchemaV3, e.Meta.Schema)
	}
	if e.Submitted() {
		t.Fatalf("expected entry without meta to be unsubmitted")
	}
}

func TestEntryUnmarshalKeepsBooleanFullTime(t *testing.T) {
	raw := `{"id":"b","fullTime":false,"startDate":"2024-01-05","_meta":{"savedAt":"2024-01-01T10:00:00Z","submittedAt":null,"schema":4}}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.IsFullTime() {
		t.Fatalf("expected fullTime=false to survive")
	}
	if e.StartDate == nil || *e.StartDate != "2024-01-05" {
		t.Fatalf("expected start date, got %v", e.StartDate)
	}
	if e.Meta.Schema != SchemaV4 {
		t.Fatalf("expected schema 4, got %d", e.Meta.Schema)
	}
}
