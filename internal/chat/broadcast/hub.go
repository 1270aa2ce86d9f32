// Package broadcast fans chat events out to every connected stream.
package broadcast

import (
	"sync"

	"portalchat/internal/chat/models"
	"portalchat/internal/logging"
	"portalchat/internal/mailbox"
	"portalchat/internal/metrics"
)

const DefaultCapacity = 50

// Subscription is one listener's view of the hub. Events published before
// Subscribe returned are never delivered to it.
type Subscription struct {
	ID      uint64
	Mailbox *mailbox.Mailbox[models.Event]
}

type Hub struct {
	subs     map[uint64]*mailbox.Mailbox[models.Event]
	nextID   uint64
	capacity int
	mu       sync.RWMutex
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		subs:     make(map[uint64]*mailbox.Mailbox[models.Event]),
		capacity: capacity,
	}
}

func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{ID: h.nextID, Mailbox: mailbox.New[models.Event](h.capacity)}
	h.subs[sub.ID] = sub.Mailbox
	metrics.OpenStreams.WithLabelValues(metrics.ChannelChat).Inc()
	logging.Debug().Uint64("subscriber", sub.ID).Int("subscribers", len(h.subs)).Msg("chat subscriber joined")
	return sub
}

// Unsubscribe is idempotent; unknown or already removed subscriptions are ignored.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	metrics.OpenStreams.WithLabelValues(metrics.ChannelChat).Dec()
	logging.Debug().Uint64("subscriber", sub.ID).Int("subscribers", len(h.subs)).Msg("chat subscriber left")
}

// Publish offers ev to every current subscriber without blocking. A subscriber
// whose mailbox is full loses this event; the others are unaffected.
func (h *Hub) Publish(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	for id, mb := range h.subs {
		if !mb.Offer(ev) {
			metrics.EventsDropped.WithLabelValues(metrics.ChannelChat).Inc()
			logging.Warn().Uint64("subscriber", id).Str("type", string(ev.Type)).Msg("chat subscriber queue full, event dropped")
		}
	}
}

// Size returns the number of live subscriptions.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
