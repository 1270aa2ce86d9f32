// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsPublished counts chat events handed to the broadcast hub, by event type.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalchat_events_published_total",
			Help: "Chat events published to the broadcast hub",
		},
		[]string{"type"},
	)

	// EventsDropped counts events discarded because a subscriber mailbox was full.
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalchat_events_dropped_total",
			Help: "Events dropped for a full subscriber or user mailbox",
		},
		[]string{"channel"},
	)

	OpenStreams = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portalchat_open_streams",
			Help: "Currently open event stream connections",
		},
		[]string{"channel"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalchat_notifications_total",
			Help: "Direct notifications queued for users, by type",
		},
		[]string{"type"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalchat_store_errors_total",
			Help: "Message store failures by operation",
		},
		[]string{"op"},
	)

	MessagesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portalchat_messages_purged_total",
			Help: "Messages removed by the weekly retention purge",
		},
	)
)

const (
	ChannelChat   = "chat"
	ChannelNotify = "notify"
)
