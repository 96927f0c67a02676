package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEventHubBroadcast(t *testing.T) {
	hub := NewEventHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if hub.SubscriberCount() != 1 {
		t.Fatal("subscriber never registered")
	}

	hub.BroadcastState("playing")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev StateEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Type != "playback_state" {
		t.Fatalf("unexpected event type %q", ev.Type)
	}
	if ev.State != "playing" {
		t.Fatalf("unexpected state %q", ev.State)
	}

	hub.Close()
	if hub.SubscriberCount() != 0 {
		t.Fatal("expected subscribers to be dropped on Close")
	}
}

func TestBroadcastDoesNotBlockOnStalledSubscriber(t *testing.T) {
	hub := NewEventHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// A subscriber with no writer draining its backlog stands in for a
	// stalled connection.
	stalled := &subscriber{conn: conn, send: make(chan StateEvent, 1)}
	hub.mu.Lock()
	hub.subs[stalled] = struct{}{}
	hub.mu.Unlock()

	done := make(chan struct{})
	go func() {
		hub.BroadcastState("requesting") // fills the backlog
		hub.BroadcastState("playing")    // must drop, not block
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stalled subscriber")
	}

	hub.mu.Lock()
	_, stillRegistered := hub.subs[stalled]
	hub.mu.Unlock()
	if stillRegistered {
		t.Fatal("expected stalled subscriber to be dropped")
	}
}

func TestEventHubRejectsDisallowedOrigin(t *testing.T) {
	hub := NewEventHub([]string{"https://allowed.example"})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected dial to be rejected")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
