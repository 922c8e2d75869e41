package controller

import (
	"fmt"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// SegmentState is the health of one status segment.
type SegmentState int

// Segment states. Every segment boots Unknown and never returns to it.
const (
	Unknown SegmentState = iota
	Initializing
	Healthy
	Failed
)

func (s SegmentState) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Initializing:
		return "initializing"
	case Healthy:
		return "healthy"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Color returns how the state is shown on the status row.
func (s SegmentState) Color() indicator.Color {
	switch s {
	case Initializing:
		return indicator.Yellow
	case Healthy:
		return indicator.Green
	case Failed:
		return indicator.Red
	case Unknown:
		return indicator.Black
	}
	return indicator.Black
}

// CategoryColor maps a price tier to the color of its data row.
func CategoryColor(c price.Category) (indicator.Color, error) {
	switch c {
	case price.Negative:
		return indicator.Blue, nil
	case price.ExtremelyLow:
		return indicator.Cyan, nil
	case price.VeryLow:
		return indicator.Red, nil
	case price.Low:
		return indicator.Purple, nil
	case price.Neutral, price.High, price.Spike:
		return indicator.Yellow, nil
	}
	return indicator.Black, fmt.Errorf("%w: %d", indicator.ErrUnknownCategory, int(c))
}
