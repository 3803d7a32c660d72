package drafts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

// Repository defines what the app layer needs from storage.
type Repository interface {
	Load(ctx context.Context) ([]models.Entry, error)
	Replace(ctx context.Context, entries []models.Entry) error
	Update(ctx context.Context, fn func([]models.Entry) ([]models.Entry, error)) error
}

// App manages the local draft collection.
type App struct {
	repo  Repository
	clock clockwork.Clock
}

func NewApp(repo Repository, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{repo: repo, clock: clock}
}

// Save validates req and creates or edits a draft. The saved draft is always unsubmitted.
func (a *App) Save(ctx context.Context, req SaveRequest) (*models.Entry, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	entry := models.Entry{
		ID:           strings.TrimSpace(req.ID),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Title:        strings.TrimSpace(req.Title),
		Department:   req.Department,
		BusinessUnit: req.BusinessUnit,
		FullTime:     req.FullTime,
		StartDate:    req.StartDate,
		ManagerID:    req.ManagerID,
		ManagerUPN:   req.ManagerUPN,
		ManagerName:  req.ManagerName,
		Meta: models.Meta{
			SavedAt: a.clock.Now().UTC(),
			Schema:  models.CurrentSchema,
		},
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	err := a.repo.Update(ctx, func(entries []models.Entry) ([]models.Entry, error) {
		for i := range entries {
			if entries[i].ID == entry.ID {
				entries[i] = entry
				return entries, nil
			}
		}
		return append(entries, entry), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	log.Debug().Str("id", entry.ID).Msg("saved draft")
	return &entry, nil
}

func (a *App) List(ctx context.Context) ([]models.Entry, error) {
	entries, err := a.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return entries, nil
}

func (a *App) Get(ctx context.Context, id string) (*models.Entry, error) {
	entries, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (a *App) Delete(ctx context.Context, id string) error {
	return a.repo.Update(ctx, func(entries []models.Entry) ([]models.Entry, error) {
		for i := range entries {
			if entries[i].ID == id {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// Clear removes every draft.
func (a *App) Clear(ctx context.Context) error {
	if err := a.repo.Replace(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear drafts: %w", err)
	}
	return nil
}

// UnsubmittedCount counts drafts that have never been marked submitted.
func (a *App) UnsubmittedCount(ctx context.Context) (int, error) {
	entries, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.Submitted() {
			n++
		}
	}
	return n, nil
}

// Reconcile removes exactly the accepted ids; everything else stays for a later retry.
func (a *App) Reconcile(ctx context.Context, acceptedIDs []string) (ReconcileResult, error) {
	accepted := make(map[string]struct{}, len(acceptedIDs))
	for _, id := range acceptedIDs {
		accepted[id] = struct{}{}
	}

	var res ReconcileResult
	err := a.repo.Update(ctx, func(entries []models.Entry) ([]models.Entry, error) {
		kept := entries[:0]
		for _, e := range entries {
			if _, ok := accepted[e.ID]; ok {
				res.Removed++
				continue
			}
			kept = append(kept, e)
		}
		res.Remaining = len(kept)
		return kept, nil
	})
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to reconcile drafts: %w", err)
	}

	log.Info().Int("removed", res.Removed).Int("remaining", res.Remaining).Msg("reconciled drafts")
	return res, nil
}

// Validate applies the form rules: names and title need two characters after trimming,
// department, business unit and manager are required.
func Validate(req SaveRequest) error {
	verr := &ValidationError{}
	minLen := func(field, value string) {
		if len([]rune(strings.TrimSpace(value))) < 2 {
			verr.add(field, "must be at least 2 characters")
		}
	}
	required := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			verr.add(field, "is required")
		}
	}

	minLen("firstName", req.FirstName)
	minLen("lastName", req.LastName)
	minLen("title", req.Title)
	required("department", req.Department)
	required("businessUnit", req.BusinessUnit)
	required("managerId", req.ManagerID)

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
