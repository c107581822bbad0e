// Package live pushes session and record-change events to connected console
// clients over WebSocket. Clients subscribe to topics: TopicSession, or a
// console route name such as "citas".
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hospital-console/internal/platform/middleware"
	"github.com/ehr/hospital-console/internal/platform/session"
)

// TopicSession carries login and logout of the console session.
const TopicSession = "session"

// Event types.
const (
	EventSessionChanged = "session.changed"
	EventRecordCreated  = "record.created"
	EventRecordUpdated  = "record.updated"
	EventRecordDeleted  = "record.deleted"
)

// Event is one message sent to clients.
type Event struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic"`
	ResourceID string          `json:"resourceId,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is what a client sends to change its subscriptions.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

type client struct {
	id     string
	topics map[string]struct{}
	send   chan []byte
}

func newClient(id string, topics []string) *client {
	c := &client{id: id, topics: make(map[string]struct{}, len(topics)), send: make(chan []byte, 64)}
	for _, t := range topics {
		if t != "" {
			c.topics[t] = struct{}{}
		}
	}
	return c
}

// Hub tracks clients by topic. It is safe for concurrent use and satisfies
// middleware.AuditRecorder.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*client]struct{}
	all    map[*client]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*client]struct{}),
		all:    make(map[*client]struct{}),
		logger: logger,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[c] = struct{}{}
	for t := range c.topics {
		h.join(c, t)
	}
}

// unregister drops c from every topic and closes its send channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for t := range c.topics {
		h.leave(c, t)
	}
	delete(h.all, c)
	close(c.send)
}

// join and leave must be called with h.mu held.
func (h *Hub) join(c *client, topic string) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*client]struct{})
	}
	h.topics[topic][c] = struct{}{}
}

func (h *Hub) leave(c *client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) process(c *client, msg ClientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for _, t := range msg.Topics {
		if t == "" {
			continue
		}
		switch msg.Action {
		case "subscribe":
			c.topics[t] = struct{}{}
			h.join(c, t)
		case "unsubscribe":
			delete(c.topics, t)
			h.leave(c, t)
		}
	}
}

// Broadcast sends event to the subscribers of event.Topic. Clients whose
// buffer is full miss the event.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", event.Topic).Msg("encode live event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[event.Topic] {
		select {
		case c.send <- data:
		default:
			h.logger.Debug().Str("client", c.id).Str("topic", event.Topic).Msg("live client lagging, event dropped")
		}
	}
}

// RecordAccess turns successful record writes seen by the audit middleware
// into record events on the route's topic. Password changes are not broadcast.
func (h *Hub) RecordAccess(e middleware.AuditEntry) error {
	if e.StatusCode >= http.StatusBadRequest {
		return nil
	}
	var typ string
	switch e.Action {
	case middleware.ActionCreate:
		typ = EventRecordCreated
	case middleware.ActionUpdate, middleware.ActionReactivate:
		typ = EventRecordUpdated
	case middleware.ActionDelete, middleware.ActionPurge:
		typ = EventRecordDeleted
	default:
		return nil
	}
	h.Broadcast(Event{Type: typ, Topic: e.Resource, ResourceID: e.ResourceID, Timestamp: e.Timestamp})
	return nil
}

// RelaySession forwards every published profile to TopicSession until ctx is
// done or the subscription is cancelled. A nil profile is sent as null data.
func (h *Hub) RelaySession(ctx context.Context, profiles <-chan *session.UserProfile) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-profiles:
			if !ok {
				return
			}
			data, err := json.Marshal(p)
			if err != nil {
				h.logger.Error().Err(err).Msg("encode session profile")
				continue
			}
			h.Broadcast(Event{Type: EventSessionChanged, Topic: TopicSession, Timestamp: time.Now().UTC(), Data: data})
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
