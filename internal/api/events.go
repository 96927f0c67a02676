package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/studyloop/lecture-gateway/internal/observability"
)

// sendBuffer is the per-subscriber event backlog; a subscriber that falls
// this far behind is dropped.
const sendBuffer = 16

// StateEvent is the JSON frame pushed to websocket subscribers whenever the
// playback controller changes state.
type StateEvent struct {
	Type      string    `json:"type"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan StateEvent
}

// EventHub fans playback state transitions out to websocket subscribers.
// Each subscriber has its own writer goroutine fed from a buffered channel,
// so broadcasting never blocks the caller on a slow connection. Subscribers
// are read-only; anything they send is discarded.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewEventHub(allowedOrigins []string) *EventHub {
	return &EventHub{
		logger: observability.WithComponent("event-hub"),
		subs:   make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWS upgrades the request and keeps the connection registered until
// the client disconnects.
func (h *EventHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan StateEvent, sendBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug().Int("subscribers", count).Msg("subscriber connected")

	go h.writeLoop(sub)

	// Drain inbound frames so pings and close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(sub)
	h.logger.Debug().Int("subscribers", h.SubscriberCount()).Msg("subscriber disconnected")
}

func (h *EventHub) writeLoop(sub *subscriber) {
	for event := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := sub.conn.WriteJSON(event); err != nil {
			h.logger.Warn().Err(err).Msg("dropping subscriber on write failure")
			h.remove(sub)
			return
		}
	}
}

// remove unregisters the subscriber and closes its connection. Safe to call
// from multiple goroutines; only the first call closes the send channel.
func (h *EventHub) remove(sub *subscriber) {
	h.mu.Lock()
	_, registered := h.subs[sub]
	if registered {
		delete(h.subs, sub)
		close(sub.send)
	}
	h.mu.Unlock()

	if registered {
		sub.conn.Close()
	}
}

// BroadcastState queues the state name for every subscriber without blocking.
// Subscribers whose backlog is full are dropped.
func (h *EventHub) BroadcastState(state string) {
	event := StateEvent{
		Type:      "playback_state",
		State:     state,
		Timestamp: time.Now().UTC(),
	}

	h.mu.Lock()
	var stalled []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- event:
		default:
			stalled = append(stalled, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range stalled {
		h.logger.Warn().Msg("dropping stalled subscriber")
		h.remove(sub)
	}
}

// Close disconnects all subscribers.
func (h *EventHub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.remove(sub)
	}
}

// SubscriberCount reports the number of connected subscribers.
func (h *EventHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
