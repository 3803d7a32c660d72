package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Warmer refreshes the cache on a schedule so request paths rarely pay for a directory call.
type Warmer struct {
	cron    *cron.Cron
	cache   *Cache
	timeout time.Duration
}

func NewWarmer(cache *Cache, timeout time.Duration) *Warmer {
	return &Warmer{
		cron:    cron.New(),
		cache:   cache,
		timeout: timeout,
	}
}

// Start registers the refresh job and starts the scheduler. An empty schedule disables it.
func (w *Warmer) Start(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := w.cron.AddFunc(schedule, w.warm); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", schedule, err)
	}
	w.cron.Start()
	log.Info().Str("schedule", schedule).Msg("directory warmer started")
	return nil
}

func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
}

func (w *Warmer) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	managers, err := w.cache.Refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("directory warm-up failed, keeping previous managers")
		return
	}
	log.Debug().Int("managers", len(managers)).Msg("directory warm-up complete")
}
