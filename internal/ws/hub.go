// Package ws fans domain events out to websocket subscribers.
//
// Subscribers register for topics ("user:alice", "project:<id>"); a
// published event reaches every subscriber of any of its topics exactly
// once. Delivery is best effort: a subscriber whose buffer is full misses
// the event rather than slowing the publisher down.
package ws

import (
	"sync"

	"github.com/sakif/flashgig/internal/model"
)

// DefaultBuffer is the per-subscriber event buffer.
const DefaultBuffer = 64

type Subscription struct {
	topics []string
	ch     chan model.Event
}

// C delivers events. It is closed by Hub.Unsubscribe.
func (s *Subscription) C() <-chan model.Event {
	return s.ch
}

func (s *Subscription) Topics() []string {
	return s.topics
}

type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{
		topics: map[string]map[*Subscription]struct{}{},
		buffer: DefaultBuffer,
	}
}

// Subscribe registers a subscription for topics. Empty and duplicate
// topics are ignored.
func (h *Hub) Subscribe(topics ...string) *Subscription {
	seen := map[string]bool{}
	sub := &Subscription{ch: make(chan model.Event, h.buffer)}
	for _, t := range topics {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		sub.topics = append(sub.topics, t)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range sub.topics {
		if h.topics[t] == nil {
			h.topics[t] = map[*Subscription]struct{}{}
		}
		h.topics[t][sub] = struct{}{}
	}
	return sub
}

// Unsubscribe removes sub from the hub and closes its channel. Calling it
// twice is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for _, t := range sub.topics {
		set, ok := h.topics[t]
		if !ok {
			continue
		}
		if _, ok := set[sub]; ok {
			delete(set, sub)
			removed = true
		}
		if len(set) == 0 {
			delete(h.topics, t)
		}
	}
	// Publish sends under the read lock, so closing under the write lock
	// cannot race with a send.
	if removed {
		close(sub.ch)
	}
}

// Publish delivers ev to every subscriber of any topic in topics.
func (h *Hub) Publish(topics []string, ev model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := map[*Subscription]struct{}{}
	for _, t := range topics {
		for sub := range h.topics[t] {
			if _, done := delivered[sub]; done {
				continue
			}
			delivered[sub] = struct{}{}
			select {
			case sub.ch <- ev:
			default:
				// full buffer: drop
			}
		}
	}
}

// Close unsubscribes everyone. Connections being served see their channel
// close and shut down with StatusGoingAway.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := map[*Subscription]struct{}{}
	for t, set := range h.topics {
		for sub := range set {
			if _, done := closed[sub]; !done {
				closed[sub] = struct{}{}
				close(sub.ch)
			}
		}
		delete(h.topics, t)
	}
}

// Subscribers returns the number of subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
