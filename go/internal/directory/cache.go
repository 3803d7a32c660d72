package directory

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

// DefaultTTL is how long a fetched manager list is served without asking the directory.
const DefaultTTL = 5 * time.Minute

// DefaultRefreshTimeout bounds one shared refresh: group resolution plus every member page.
const DefaultRefreshTimeout = 30 * time.Second

// Fetcher produces a complete manager list.
type Fetcher interface {
	Managers(ctx context.Context) ([]models.Manager, error)
}

type cacheEntry struct {
	fetchedAt time.Time
	managers  []models.Manager
}

// Cache holds a single, whole-result manager list. Construct one per process and share it.
type Cache struct {
	fetcher Fetcher
	clock   clockwork.Clock
	ttl     time.Duration

	refreshTimeout time.Duration

	mu    sync.RWMutex
	entry cacheEntry

	refresh singleflight.Group
}

func NewCache(fetcher Fetcher, clock clockwork.Clock, ttl time.Duration) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{fetcher: fetcher, clock: clock, ttl: ttl, refreshTimeout: DefaultRefreshTimeout}
}

// GetManagers serves the cached list while it is fresh and non-empty, otherwise refreshes.
// A failed refresh leaves the previous entry in place and returns the error.
func (c *Cache) GetManagers(ctx context.Context) ([]models.Manager, error) {
	now := c.clock.Now()
	c.mu.RLock()
	entry := c.entry
	c.mu.RUnlock()

	if len(entry.managers) > 0 && now.Sub(entry.fetchedAt) < c.ttl {
		return entry.managers, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches unconditionally. Concurrent callers share one in-flight fetch, which runs
// detached from any single caller and is bounded by the refresh timeout. Each caller still
// stops waiting when its own ctx is done.
func (c *Cache) Refresh(ctx context.Context) ([]models.Manager, error) {
	ch := c.refresh.DoChan("managers", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		fetchedAt := c.clock.Now()
		managers, err := c.fetcher.Managers(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.store(fetchedAt, managers)
		return managers, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			log.Warn().Err(res.Err).Bool("shared", res.Shared).Msg("manager cache refresh failed")
			return nil, res.Err
		}
		return res.Val.([]models.Manager), nil
	}
}

// SetRefreshTimeout bounds a shared refresh, which may span several directory calls.
func (c *Cache) SetRefreshTimeout(d time.Duration) {
	if d > 0 {
		c.refreshTimeout = d
	}
}

// store replaces the entry unless a fetch that started later already landed.
func (c *Cache) store(fetchedAt time.Time, managers []models.Manager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.entry.fetchedAt.IsZero() && fetchedAt.Before(c.entry.fetchedAt) {
		log.Debug().Time("fetched_at", fetchedAt).Msg("discarding stale manager list")
		return
	}
	c.entry = cacheEntry{fetchedAt: fetchedAt, managers: managers}
	log.Debug().Int("managers", len(managers)).Time("fetched_at", fetchedAt).Msg("manager cache refreshed")
}

// Peek returns whatever is cached, fresh or not, without touching the directory.
func (c *Cache) Peek() []models.Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry.managers
}

// LookupUPN finds a cached manager's principal name by id.
func (c *Cache) LookupUPN(managerID string) (string, bool) {
	for _, m := range c.Peek() {
		if m.ID == managerID && m.UPN != nil && *m.UPN != "" {
			return *m.UPN, true
		}
	}
	return "", false
}

// FetchedAt is the timestamp of the cached entry; zero when nothing has been fetched.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry.fetchedAt
}
