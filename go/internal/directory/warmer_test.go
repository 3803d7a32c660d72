package directory

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

func TestWarmerRefreshesCache(t *testing.T) {
	fetcher := &countingFetcher{managers: []models.Manager{{ID: "1", Name: "Ada"}}}
	cache := NewCache(fetcher, clockwork.NewFakeClock(), 5*time.Minute)
	w := NewWarmer(cache, time.Second)

	w.warm()

	if got := cache.Peek(); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected warmed managers, got %+v", got)
	}
}

func TestWarmerKeepsPreviousOnFailure(t *testing.T) {
	fetcher := &countingFetcher{managers: []models.Manager{{ID: "1", Name: "Ada"}}}
	cache := NewCache(fetcher, clockwork.NewFakeClock(), 5*time.Minute)
	w := NewWarmer(cache, time.Second)
	w.warm()

	fetcher.mu.Lock()
	fetcher.err = errors.New("directory down")
	fetcher.mu.Unlock()
	w.warm()

	if got := cache.Peek(); len(got) != 1 {
		t.Fatalf("expected previous managers kept, got %+v", got)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected two fetches, got %d", fetcher.calls)
	}
}

func TestWarmerStart(t *testing.T) {
	cache := NewCache(&countingFetcher{}, clockwork.NewFakeClock(), time.Minute)

	if err := NewWarmer(cache, time.Second).Start(""); err != nil {
		t.Errorf("empty schedule should disable the warmer, got %v", err)
	}
	if err := NewWarmer(cache, time.Second).Start("not a schedule"); err == nil {
		t.Error("expected invalid schedule error")
	}

	w := NewWarmer(cache, time.Second)
	if err := w.Start("@every 1h"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
}
