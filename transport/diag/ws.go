package diag

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"rimoserver/eventbus"
)

var upgrader = websocket.Upgrader{
	// Diagnostics clients are same-origin operator tooling, not a
	// public API; origin checking adds nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushedEvent is the wire shape for every message sent on the feed.
type pushedEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleWS upgrades the connection, sends one initial full snapshot,
// then relays every ComponentStateChanged event from eventbus (the
// only event type it subscribes to) until the socket closes. Mirrors
// EventsClient's subscribe/queue/writer-loop shape, replacing its
// SafeQueue with a plain buffered channel since a single diagnostics
// viewer never needs EventsManager's multi-client bookkeeping.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := eventbus.NewSubscriber()
	outgoing := make(chan eventbus.Event, 16)
	done := make(chan struct{})
	var closed atomic.Bool

	handler := func(event eventbus.Event) {
		if closed.Load() {
			return
		}
		select {
		case outgoing <- event:
		default:
			s.log.Warn("diagnostics feed backlog full, dropping event")
		}
	}
	s.bus.Subscribe(eventbus.ComponentStateChangedType, sub, handler)
	defer s.bus.Unsubscribe(eventbus.ComponentStateChangedType, sub)

	if err := conn.WriteJSON(pushedEvent{Type: "status.snapshot", Data: s.status()}); err != nil {
		return
	}

	// A reader goroutine is required so gorilla/websocket processes
	// control frames (ping/pong, close) and notices the peer hanging up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closed.Store(true)
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event := <-outgoing:
			raw, err := json.Marshal(event.Data())
			if err != nil {
				s.log.Error(err, "marshalling diagnostics event")
				continue
			}
			if err := conn.WriteJSON(pushedEvent{Type: event.Type(), Data: json.RawMessage(raw)}); err != nil {
				return
			}
		}
	}
}
