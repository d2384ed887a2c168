package store

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	conversationsTracked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_conversations_created_total",
		Help: "Conversations created on first reference by any event.",
	})
	messagesStored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_messages_stored_total",
		Help: "Messages written into conversation history.",
	})
	historyEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_history_evictions_total",
		Help: "History entries dropped by the batch trim.",
	})
)

func init() {
	prometheus.MustRegister(conversationsTracked, messagesStored, historyEvictions)
}
