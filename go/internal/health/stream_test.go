package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStreamerPushesStatusAndTracksVisibility(t *testing.T) {
	checker := &countingChecker{}
	probe := NewProbe(checker, ProbeConfig{})
	streamer := NewStreamer(probe, DefaultStreamConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go streamer.Start(ctx)

	srv := httptest.NewServer(streamer)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readStatus := func() Status {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var s Status
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		return s
	}

	if got := readStatus().State; got != StateChecking {
		t.Fatalf("expected initial checking status, got %s", got)
	}
	waitFor(t, func() bool { return streamer.Connections() == 1 })
	if !probe.Visible() {
		t.Fatal("probe should be visible while a client is connected")
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"check"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		s := readStatus()
		if s.State == StateOK {
			break
		}
		if s.State != StateChecking {
			t.Fatalf("unexpected state %s", s.State)
		}
	}
	if checker.calls.Load() == 0 {
		t.Fatal("check command did not run a check")
	}

	conn.Close()
	waitFor(t, func() bool { return streamer.Connections() == 0 })
	if probe.Visible() {
		t.Fatal("probe should be hidden once the last client leaves")
	}
}
