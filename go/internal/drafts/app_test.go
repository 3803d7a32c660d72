package drafts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

func validRequest(id string) SaveRequest {
	return SaveRequest{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Title:        "Engineer",
		Department:   "R&D",
		BusinessUnit: "Core",
		ManagerID:    "m1",
		ManagerName:  "Grace Hopper",
	}
}

func newTestApp(t *testing.T) (*App, *FileStore, *clockwork.FakeClock) {
	t.Helper()
	store := NewFileStore(t.TempDir())
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	return NewApp(store, clock), store, clock
}

func TestSaveCreatesUnsubmittedDraft(t *testing.T) {
	app, _, clock := newTestApp(t)
	ctx := context.Background()

	e, err := app.Save(ctx, validRequest(""))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected a generated id")
	}
	if e.Meta.SubmittedAt != nil {
		t.Fatalf("expected submittedAt to be null, got %v", e.Meta.SubmittedAt)
	}
	if e.Meta.Schema != models.CurrentSchema {
		t.Fatalf("expected schema %d, got %d", models.CurrentSchema, e.Meta.Schema)
	}
	if !e.Meta.SavedAt.Equal(clock.Now()) {
		t.Fatalf("expected savedAt %v, got %v", clock.Now(), e.Meta.SavedAt)
	}

	n, err := app.UnsubmittedCount(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 unsubmitted draft, got %d (%v)", n, err)
	}
}

func TestSaveEditsInPlace(t *testing.T) {
	app, _, clock := newTestApp(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := app.Save(ctx, validRequest(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	clock.Advance(time.Minute)
	edit := validRequest("b")
	edit.Title = "Staff Engineer"
	if _, err := app.Save(ctx, edit); err != nil {
		t.Fatalf("Save edit: %v", err)
	}

	entries, err := app.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(entries))
	}
	if entries[1].ID != "b" || entries[1].Title != "Staff Engineer" {
		t.Fatalf("edit did not land in place: %+v", entries[1])
	}
	if !entries[1].Meta.SavedAt.Equal(clock.Now()) {
		t.Fatalf("savedAt not refreshed on edit")
	}
}

func TestSaveValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := SaveRequest{FirstName: " A ", LastName: "Lovelace", Title: "x"}
	_, err := app.Save(context.Background(), req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"firstName", "title", "department", "businessUnit", "managerId"} {
		if !verr.Has(field) {
			t.Errorf("expected %s to be rejected", field)
		}
	}
	if verr.Has("lastName") {
		t.Errorf("lastName should pass")
	}
}

func TestReconcileRemovesAcceptedOnly(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := app.Save(ctx, validRequest(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	res, err := app.Reconcile(ctx, []string{"a", "c", "unknown"})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Removed != 2 || res.Remaining != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	entries, _ := app.List(ctx)
	if len(entries) != 1 || entries[0].ID != "b" {
		t.Fatalf("expected only b to remain, got %+v", entries)
	}
}

func TestReconcileAllAcceptedEmptiesStore(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := app.Save(ctx, validRequest(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if _, err := app.Reconcile(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	entries, _ := app.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected empty store, got %d", len(entries))
	}
}

func TestDeleteAndClear(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := app.Save(ctx, validRequest(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := app.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := app.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := app.Get(ctx, "b"); err != nil {
		t.Fatalf("Get b: %v", err)
	}
	if err := app.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := app.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected no drafts after clear, got %d", len(entries))
	}
}

func TestFileStoreToleratesOldAndBrokenDocuments(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	old := `[{"id":"x","firstName":"Ada","fullTime":"true","managerId":"m1","_meta":{"savedAt":"2023-03-01T00:00:00Z","submittedAt":null,"schema":3}}]`
	if err := os.WriteFile(store.Path(), []byte(old), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 || entries[0].FullTime != nil || entries[0].Meta.Schema != models.SchemaV3 {
		t.Fatalf("old record not defaulted: %+v", entries)
	}

	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err = store.Load(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected broken document to load empty, got %v (%v)", entries, err)
	}
}

func TestFileStoreMovesBrokenDocumentAside(t *testing.T) {
	app, store, _ := newTestApp(t)
	ctx := context.Background()

	broken := []byte(`[{"id":"x","firstName":"Ada"`)
	if err := os.WriteFile(store.Path(), broken, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := app.Save(ctx, validRequest("new")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	matches, err := filepath.Glob(store.Path() + ".corrupt-*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one preserved copy, got %v", matches)
	}
	kept, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(kept) != string(broken) {
		t.Fatalf("preserved copy differs: %q", kept)
	}

	entries, err := app.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Fatalf("unexpected collection after recovery: %+v", entries)
	}
}
