// Package realtime is an in-process publish/subscribe hub fanning out live
// activity events (searches, flag reports) to WebSocket firehose sessions.
//
// Fan-out is best effort: a listener whose buffer is full drops events rather
// than backpressuring request handling. There is no persistence or replay.
package realtime

import (
	"sync"
	"time"
)

// SearchEvent describes one executed search.
type SearchEvent struct {
	Term        string    `json:"term"`
	Channel     string    `json:"channel,omitempty"`
	Game        string    `json:"game,omitempty"`
	Year        string    `json:"year,omitempty"`
	Exact       bool      `json:"exact,omitempty"`
	ResultCount int       `json:"result_count"`
	QueryTimeMs int64     `json:"query_time_ms"`
	At          time.Time `json:"at"`
}

// FlagEvent describes one submitted flag report.
type FlagEvent struct {
	Term       string    `json:"term"`
	VideoTitle string    `json:"video_title,omitempty"`
	At         time.Time `json:"at"`
}

// Event is the envelope delivered to listeners. Exactly one payload field is
// set, selected by Type ("search" or "flag").
type Event struct {
	Type   string       `json:"type"`
	Search *SearchEvent `json:"search,omitempty"`
	Flag   *FlagEvent   `json:"flag,omitempty"`
}

// Hub dispatches events to registered listeners over per-listener buffered
// channels. Safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size. Sizes <= 0
// fall back to 32.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener and returns its id and receive channel. Callers
// must Unregister the id when done.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes a listener and closes its channel. Unknown ids are
// ignored, so calling twice is safe.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// PublishSearch broadcasts a search event to all listeners.
func (h *Hub) PublishSearch(ev SearchEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.broadcast(Event{Type: "search", Search: &ev})
}

// PublishFlag broadcasts a flag event to all listeners.
func (h *Hub) PublishFlag(ev FlagEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.broadcast(Event{Type: "flag", Flag: &ev})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// Slow listener, drop.
		}
	}
}

// Size returns the number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
