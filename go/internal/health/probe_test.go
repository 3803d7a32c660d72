package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/reckman-cloud/employee-admin-app/go/clients"
	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
)

type funcChecker func(ctx context.Context) (queue.Snapshot, error)

func (f funcChecker) Check(ctx context.Context) (queue.Snapshot, error) { return f(ctx) }

type countingChecker struct {
	calls atomic.Int32
}

func (c *countingChecker) Check(ctx context.Context) (queue.Snapshot, error) {
	c.calls.Add(1)
	return queue.Snapshot{OK: true}, nil
}

func offline() bool { return false }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProbeStates(t *testing.T) {
	cases := []struct {
		name    string
		checker Checker
		online  Connectivity
		want    State
	}{
		{"ok", funcChecker(func(ctx context.Context) (queue.Snapshot, error) { return queue.Snapshot{OK: true}, nil }), AlwaysOnline, StateOK},
		{"degraded", funcChecker(func(ctx context.Context) (queue.Snapshot, error) { return queue.Snapshot{OK: false}, nil }), AlwaysOnline, StateDegraded},
		{"error", funcChecker(func(ctx context.Context) (queue.Snapshot, error) { return queue.Snapshot{}, errors.New("boom") }), AlwaysOnline, StateError},
		{"offline", funcChecker(func(ctx context.Context) (queue.Snapshot, error) { return queue.Snapshot{}, errors.New("boom") }), offline, StateOffline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProbe(tc.checker, ProbeConfig{Connectivity: tc.online})
			if got := p.Status().State; got != StateChecking {
				t.Fatalf("expected initial state checking, got %s", got)
			}
			if got := p.Check(context.Background()).State; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestProbeTimeoutWhileOfflineIsOffline(t *testing.T) {
	blocking := funcChecker(func(ctx context.Context) (queue.Snapshot, error) {
		<-ctx.Done()
		return queue.Snapshot{}, ctx.Err()
	})
	p := NewProbe(blocking, ProbeConfig{Timeout: 20 * time.Millisecond, Connectivity: offline})

	if got := p.Check(context.Background()).State; got != StateOffline {
		t.Fatalf("expected offline, got %s", got)
	}
}

func TestProbeNewCheckCancelsInFlight(t *testing.T) {
	var calls atomic.Int32
	firstCancelled := make(chan struct{})
	checker := funcChecker(func(ctx context.Context) (queue.Snapshot, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			close(firstCancelled)
			return queue.Snapshot{}, ctx.Err()
		}
		return queue.Snapshot{OK: true}, nil
	})
	p := NewProbe(checker, ProbeConfig{Timeout: time.Minute})

	done := make(chan Status, 1)
	go func() { done <- p.Check(context.Background()) }()
	waitFor(t, func() bool { return calls.Load() == 1 })

	if got := p.Check(context.Background()).State; got != StateOK {
		t.Fatalf("expected ok from second check, got %s", got)
	}

	select {
	case <-firstCancelled:
	case <-time.After(time.Second):
		t.Fatal("first check was not cancelled")
	}
	<-done
	if got := p.Status().State; got != StateOK {
		t.Fatalf("superseded check overwrote status: %s", got)
	}
}

func TestProbePausedWhileHidden(t *testing.T) {
	clock := clockwork.NewFakeClock()
	checker := &countingChecker{}
	p := NewProbe(checker, ProbeConfig{Clock: clock, Interval: 30 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(30 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if n := checker.calls.Load(); n != 0 {
		t.Fatalf("hidden probe checked %d times", n)
	}

	p.SetVisible(true)
	waitFor(t, func() bool { return checker.calls.Load() == 1 })

	clock.Advance(30 * time.Second)
	waitFor(t, func() bool { return checker.calls.Load() == 2 })
}

func TestProbeSubscribe(t *testing.T) {
	p := NewProbe(&countingChecker{}, ProbeConfig{})
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	if s := <-updates; s.State != StateChecking {
		t.Fatalf("expected current status first, got %s", s.State)
	}
	p.Check(context.Background())
	if s := <-updates; s.State != StateChecking {
		t.Fatalf("expected checking, got %s", s.State)
	}
	if s := <-updates; s.State != StateOK {
		t.Fatalf("expected ok, got %s", s.State)
	}
}

func TestHTTPChecker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"queueName":"q","approximateMessageCount":3,"reason":null}`))
	})
	mux.HandleFunc("/degraded/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"ok":false,"queueName":"q","approximateMessageCount":null,"reason":"queue-not-found"}`))
	})
	mux.HandleFunc("/broken/api/health", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	check := func(prefix string, online Connectivity) Status {
		c := NewHTTPChecker(clients.NewBaseClient(srv.URL + prefix))
		return NewProbe(c, ProbeConfig{Connectivity: online}).Check(context.Background())
	}

	if s := check("/ok", AlwaysOnline); s.State != StateOK || *s.Snapshot.ApproximateMessageCount != 3 {
		t.Fatalf("unexpected ok status %+v", s)
	}
	if s := check("/degraded", AlwaysOnline); s.State != StateDegraded || *s.Snapshot.Reason != "queue-not-found" {
		t.Fatalf("unexpected degraded status %+v", s)
	}
	if s := check("/broken", AlwaysOnline); s.State != StateError {
		t.Fatalf("expected error, got %s", s.State)
	}

	closed := httptest.NewServer(mux)
	closed.Close()
	c := NewHTTPChecker(clients.NewBaseClient(closed.URL))
	if s := NewProbe(c, ProbeConfig{Connectivity: offline}).Check(context.Background()); s.State != StateOffline {
		t.Fatalf("expected offline, got %s", s.State)
	}
}
