package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"acrossfc/core"
)

// Filter selects which awards a subscriber receives. Zero values match everything.
type Filter struct {
	Member     core.MemberID
	Categories []core.PointsCategory
}

func (f Filter) match(ev core.PointsEvent) bool {
	if f.Member != 0 && f.Member != ev.MemberID {
		return false
	}
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if c == ev.Category {
			return true
		}
	}
	return false
}

type subscriber struct {
	ch     chan core.PointsEvent
	filter Filter
}

// Hub is a simple pub/sub for broadcasting points awards to channels.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]subscriber
	next    int
	dropped atomic.Int64
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

func (h *Hub) Subscribe(buffer int, filter Filter) (int, <-chan core.PointsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.PointsEvent, buffer)
	h.subs[id] = subscriber{ch: ch, filter: filter}
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped counts awards not delivered because a subscriber was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Broadcast never blocks; full subscribers miss the award.
func (h *Hub) Broadcast(_ context.Context, ev core.PointsEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !s.filter.match(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// MarshalJSON is a helper to convert awards to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.PointsEvent) []byte {
	b, _ := json.Marshal(ev)
	return b
}
