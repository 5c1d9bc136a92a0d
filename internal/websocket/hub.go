// Package websocket pushes live-refresh notifications to connected
// dashboards. The hub fans one event out to every client subscribed to
// the event's session; clients that fall behind are dropped rather than
// allowed to block the broadcast.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event types sent to dashboard clients.
const (
	EventDataUpdated   = "data_updated"
	EventRangeChanged  = "range_changed"
	EventSessionClosed = "session_closed"
)

// Event is one live-refresh message. Payload is event-specific and may
// be nil.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Hub tracks connected clients and routes session events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	logger *slog.Logger
}

// NewHub creates a hub; call Run before registering clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		logger:     logger.With(slog.String("component", "websocket_hub")),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered",
				slog.String("session_id", client.sessionID),
				slog.Int("client_count", h.ClientCount()))

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

// Broadcast queues an event for delivery. Never blocks; when the hub's
// queue is full the event is dropped, since every event only tells the
// dashboard to re-fetch.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast queue full, event dropped",
			slog.String("type", event.Type),
			slog.String("session_id", event.SessionID))
	}
}

// NotifyDataUpdated tells session subscribers that new tables landed.
func (h *Hub) NotifyDataUpdated(sessionID string, tableCount, warningCount int) {
	h.Broadcast(Event{
		Type:      EventDataUpdated,
		SessionID: sessionID,
		Payload: map[string]int{
			"table_count":   tableCount,
			"warning_count": warningCount,
		},
	})
}

// NotifyRangeChanged tells session subscribers the date filter moved.
func (h *Hub) NotifyRangeChanged(sessionID string) {
	h.Broadcast(Event{Type: EventRangeChanged, SessionID: sessionID})
}

// NotifySessionClosed tells subscribers the session was deleted.
func (h *Hub) NotifySessionClosed(sessionID string) {
	h.Broadcast(Event{Type: EventSessionClosed, SessionID: sessionID})
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) dispatch(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.sessionID == event.SessionID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop it so the broadcast stays non-blocking
			h.removeClient(client)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	h.mu.Unlock()

	if ok {
		close(client.send)
		h.logger.Debug("client unregistered",
			slog.String("session_id", client.sessionID))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
