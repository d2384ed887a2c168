package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatstore_events_total",
		Help: "Events dispatched, by category.",
	}, []string{"category"})
	eventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatstore_events_failed_total",
		Help: "Events whose dispatch returned an error, by category.",
	}, []string{"category"})
	messagesPushed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_messages_pushed_total",
		Help: "Messages persisted into conversation history.",
	})
	messagesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_messages_failed_total",
		Help: "Envelopes dropped by the message pipeline.",
	})
	queueDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatstore_queue_dropped_total",
		Help: "Events rejected because the ingest queue was full.",
	})
)

func init() {
	prometheus.MustRegister(eventsTotal, eventsFailed, messagesPushed, messagesFailed, queueDropped)
}
