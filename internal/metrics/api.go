package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var streamDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "api",
	Name:      "stream_dropped_events_total",
	Help:      "Events not delivered to a slow SSE client",
}, []string{"stream"})

// RecordStreamDrop counts an event dropped for an SSE stream.
func RecordStreamDrop(stream string) {
	streamDrops.WithLabelValues(stream).Inc()
}
