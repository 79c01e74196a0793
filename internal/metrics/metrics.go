package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the chat counters. Register one instance per process
// (or per test, with a fresh registry).
type Metrics struct {
	MessagesStored prometheus.Counter
	PushDelivered  prometheus.Counter
	PushDropped    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MessagesStored: f.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_stored_total",
			Help: "Messages persisted by the send operation.",
		}),
		PushDelivered: f.NewCounter(prometheus.CounterOpts{
			Name: "chat_push_delivered_total",
			Help: "Activity events handed to a live channel.",
		}),
		PushDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "chat_push_dropped_total",
			Help: "Activity events dropped because no live channel accepted them.",
		}),
	}
}
