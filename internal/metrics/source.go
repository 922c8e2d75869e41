package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	polls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "polls_total",
		Help:      "Price source polls by source and result",
	}, []string{"source", "result"})

	pollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "poll_duration_seconds",
		Help:      "Price source poll latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	lastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful poll",
	}, []string{"source"})

	mqttMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mqtt",
		Name:      "messages_total",
		Help:      "Energy topic messages by result",
	}, []string{"result"})
)

// RecordPoll records the outcome and latency of one source poll.
func RecordPoll(source string, started time.Time, err error) {
	pollDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
	if err != nil {
		polls.WithLabelValues(source, ResultError).Inc()
		return
	}
	polls.WithLabelValues(source, ResultOK).Inc()
	lastSuccess.WithLabelValues(source).Set(float64(time.Now().Unix()))
}

// RecordMQTTMessage counts a message received on the energy topic.
func RecordMQTTMessage(err error) {
	if err != nil {
		mqttMessages.WithLabelValues(ResultError).Inc()
		return
	}
	mqttMessages.WithLabelValues(ResultOK).Inc()
}
