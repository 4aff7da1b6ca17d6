package runner

import (
	"sync"
	"time"
)

// EventType names the run lifecycle stages surfaced to watchers.
type EventType string

const (
	EventCapture  EventType = "capture"
	EventPass     EventType = "pass"
	EventFallback EventType = "fallback"
	EventDone     EventType = "done"
	EventFailed   EventType = "failed"
)

// Event is one progress update for a run.
type Event struct {
	Type    EventType `json:"type"`
	RunID   string    `json:"run_id"`
	Pass    int       `json:"pass,omitempty"`
	Total   int       `json:"total,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Hub fans run events out to subscribers. Slow subscribers drop events
// rather than block the run.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of events for one run and a cancel func.
func (h *Hub) Subscribe(runID string) (<-chan Event, func()) {
	ch := make(chan Event, 32)
	h.mu.Lock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan Event]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[runID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, runID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers evt to current subscribers of its run.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[evt.RunID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
