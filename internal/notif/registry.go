// Package notif delivers direct admin notifications to individual users.
package notif

import (
	"sync"

	"portalchat/internal/logging"
	"portalchat/internal/mailbox"
	"portalchat/internal/metrics"
)

// DefaultCapacity bounds each user's pending notifications.
const DefaultCapacity = 20

type NotificationType string

const (
	TypeMessage NotificationType = "msg"
	TypeKick    NotificationType = "kick"
	TypePing    NotificationType = "ping"
)

// Notification is a frame on a user's direct stream.
type Notification struct {
	Type NotificationType `json:"type"`
	Text string           `json:"text,omitempty"`
}

var Ping = Notification{Type: TypePing}

// Registry owns one mailbox per user, created on first use and kept for the process lifetime.
type Registry struct {
	mu       sync.Mutex
	boxes    map[string]*mailbox.Mailbox[Notification]
	capacity int
}

func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		boxes:    make(map[string]*mailbox.Mailbox[Notification]),
		capacity: capacity,
	}
}

// Mailbox returns the user's mailbox, creating it if needed.
func (r *Registry) Mailbox(user string) *mailbox.Mailbox[Notification] {
	r.mu.Lock()
	defer r.mu.Unlock()
	mb, ok := r.boxes[user]
	if !ok {
		mb = mailbox.New[Notification](r.capacity)
		r.boxes[user] = mb
	}
	return mb
}

// Push queues a text message for user. It reports false when the mailbox was full.
func (r *Registry) Push(user, text string) bool {
	return r.offer(user, Notification{Type: TypeMessage, Text: text})
}

// Kick queues a forced-logout signal for user.
func (r *Registry) Kick(user string) bool {
	return r.offer(user, Notification{Type: TypeKick})
}

func (r *Registry) offer(user string, n Notification) bool {
	if r.Mailbox(user).Offer(n) {
		metrics.Notifications.WithLabelValues(string(n.Type)).Inc()
		return true
	}
	metrics.EventsDropped.WithLabelValues(metrics.ChannelNotify).Inc()
	logging.Warn().Str("user", user).Str("type", string(n.Type)).Msg("notification mailbox full, dropping")
	return false
}

// Users returns how many users have a mailbox.
func (r *Registry) Users() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boxes)
}
