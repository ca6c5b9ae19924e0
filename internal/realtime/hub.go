// Package realtime pushes domain events (new messages, new notifications) to
// connected clients.
//
// The Hub is an in-process fan-out: each subscriber gets a buffered channel,
// and Publish never blocks. A subscriber whose buffer is full misses the
// event; the drop is counted and logged at debug level. Clients treat the
// stream as a hint to refetch, so a missed event costs a stale badge, not
// lost data.
package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// Event types.
const (
	EventMessageCreated    = "message.created"
	EventNotificationsRead = "notifications.read"
	EventSessionReset      = "session.reset"
)

type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Stats receives hub bookkeeping. *metrics.Metrics satisfies it.
type Stats interface {
	Dropped()
	Subscribers(n int)
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool

	buffer int
	stats  Stats
	logger *slog.Logger
	now    func() time.Time
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
// stats may be nil.
func NewHub(buffer int, stats Stats, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		stats:  stats,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.report(n)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			n := len(h.subs)
			h.mu.Unlock()
			h.report(n)
		})
	}
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(eventType string, data any) {
	ev := Event{Type: eventType, Data: data, At: h.now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			if h.stats != nil {
				h.stats.Dropped()
			}
			h.logger.Debug("realtime event dropped", slog.String("type", eventType))
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later Publish calls are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = make(map[chan Event]struct{})
	h.mu.Unlock()
	h.report(0)
}

func (h *Hub) report(n int) {
	if h.stats != nil {
		h.stats.Subscribers(n)
	}
}
