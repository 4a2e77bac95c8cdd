// Package notify fans check-in notifications out to live invite streams.
// The registry is owned by a single Hub constructed at process start and
// injected into handlers; it is process-local and carries no durability.
package notify

import (
	"sync"
	"time"
)

// Message is the payload pushed to subscribers of a token.
type Message struct {
	Type    string    `json:"type"`
	GuestID int64     `json:"guest_id"`
	Time    time.Time `json:"time"`
}

// subscriberBuffer is how many messages a slow subscriber may lag before
// further publishes to it are dropped.
const subscriberBuffer = 8

type Hub struct {
	mu          sync.Mutex
	subscribers map[string][]chan Message
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string][]chan Message)}
}

// Subscribe registers a channel under the token and returns it with a
// cancel func. The caller must invoke cancel when its stream ends.
func (h *Hub) Subscribe(token string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[token] = append(h.subscribers[token], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[token]
		for i, c := range subs {
			if c == ch {
				h.subscribers[token] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(h.subscribers[token]) == 0 {
			delete(h.subscribers, token)
		}
	}
	return ch, cancel
}

// Publish delivers msg to every subscriber of token. A subscriber whose
// buffer is full is skipped; there is no backpressure beyond the drop.
func (h *Hub) Publish(token string, msg Message) {
	h.mu.Lock()
	subs := make([]chan Message, len(h.subscribers[token]))
	copy(subs, h.subscribers[token])
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscriberCount reports how many streams are open for a token.
func (h *Hub) SubscriberCount(token string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[token])
}
