// Package metrics provides Prometheus metrics for the indicator and its data sources.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powerindicator"

var (
	renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indicator",
		Name:      "renders_total",
		Help:      "Render calls by target and result",
	}, []string{"target", "result"})

	transmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "led",
		Name:      "transmissions_total",
		Help:      "Frames pushed to the LED driver by result",
	}, []string{"driver", "result"})

	segmentState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indicator",
		Name:      "segment_state",
		Help:      "Status segment state (0 unknown, 1 initializing, 2 healthy, 3 failed)",
	}, []string{"segment"})

	rowFill = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indicator",
		Name:      "row_fill_percent",
		Help:      "Last rendered fill percentage per data row",
	}, []string{"row"})

	rowCategory = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indicator",
		Name:      "row_category",
		Help:      "Last rendered price tier ordinal per data row",
	}, []string{"row"})
)

// Render results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultTxFailed = "transmit_failed"
	ResultError    = "error"
)

// RecordRender counts a render attempt for "row" or "segment".
func RecordRender(target, result string) {
	renders.WithLabelValues(target, result).Inc()
}

// RecordTransmission counts a frame pushed to a driver.
func RecordTransmission(driver string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	transmissions.WithLabelValues(driver, result).Inc()
}

// SetSegmentState records the numeric state of a status segment.
func SetSegmentState(segment, state int) {
	segmentState.WithLabelValues(strconv.Itoa(segment)).Set(float64(state))
}

// SetRow records the last rendered fill and tier of a data row.
func SetRow(row, category, percent int) {
	label := strconv.Itoa(row)
	rowFill.WithLabelValues(label).Set(float64(percent))
	rowCategory.WithLabelValues(label).Set(float64(category))
}
