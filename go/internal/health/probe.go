package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 8 * time.Second
)

// Probe polls a Checker and publishes a four-state status. Checks never overlap: starting
// one cancels the one in flight. Polling pauses while the probe is not visible.
type Probe struct {
	checker  Checker
	online   Connectivity
	clock    clockwork.Clock
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	status  Status
	gen     uint64
	cancel  context.CancelFunc
	visible bool
	subs    map[chan Status]struct{}

	visibility chan bool
}

type ProbeConfig struct {
	Interval     time.Duration
	Timeout      time.Duration
	Clock        clockwork.Clock
	Connectivity Connectivity
	Visible      bool
}

func NewProbe(checker Checker, cfg ProbeConfig) *Probe {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Connectivity == nil {
		cfg.Connectivity = AlwaysOnline
	}
	return &Probe{
		checker:    checker,
		online:     cfg.Connectivity,
		clock:      cfg.Clock,
		interval:   cfg.Interval,
		timeout:    cfg.Timeout,
		status:     Status{State: StateChecking},
		visible:    cfg.Visible,
		subs:       make(map[chan Status]struct{}),
		visibility: make(chan bool, 1),
	}
}

// Status returns the latest status.
func (p *Probe) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Check runs one check now, cancelling any check still in flight, and returns its status.
// A check superseded by a newer one returns the newer one's interim status.
func (p *Probe) Check(ctx context.Context) Status {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	p.cancel = cancel
	p.setLocked(Status{State: StateChecking, CheckedAt: p.clock.Now()})
	p.mu.Unlock()
	defer cancel()

	snap, err := p.checker.Check(ctx)
	next := Status{CheckedAt: p.clock.Now()}
	switch {
	case err != nil && p.online():
		next.State = StateError
		next.Detail = err.Error()
	case err != nil:
		next.State = StateOffline
		next.Detail = err.Error()
	case snap.OK:
		next.State = StateOK
		next.Snapshot = &snap
	default:
		next.State = StateDegraded
		next.Snapshot = &snap
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return p.status
	}
	p.cancel = nil
	p.setLocked(next)
	if next.State != StateOK {
		log.Debug().Str("state", string(next.State)).Str("detail", next.Detail).Msg("health check")
	}
	return next
}

// SetVisible pauses or resumes polling. Becoming visible triggers an immediate check.
func (p *Probe) SetVisible(visible bool) {
	p.mu.Lock()
	changed := p.visible != visible
	p.visible = visible
	p.mu.Unlock()
	if !changed {
		return
	}
	select {
	case p.visibility <- visible:
	default:
		// Run reads p.visible when it drains; one pending signal is enough.
	}
}

func (p *Probe) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Run polls until ctx is done. It checks immediately when visible.
func (p *Probe) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	defer func() {
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.mu.Unlock()
	}()

	if p.Visible() {
		go p.Check(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if p.Visible() {
				go p.Check(ctx)
			}
		case <-p.visibility:
			if p.Visible() {
				ticker.Reset(p.interval)
				go p.Check(ctx)
			}
		}
	}
}

// Subscribe streams every status change. The returned func unsubscribes.
func (p *Probe) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	ch <- p.status
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (p *Probe) setLocked(s Status) {
	p.status = s
	for ch := range p.subs {
		select {
		case ch <- s:
		default:
			log.Warn().Str("state", string(s.State)).Msg("health subscriber too slow, dropping status")
		}
	}
}
