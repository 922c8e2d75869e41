// Package source fetches price tier readings for the data rows.
package source

import (
	"context"

	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// Reading is one data row value.
type Reading struct {
	Row      int
	Name     string
	Category price.Category
	Percent  int
}

// Source produces a full set of readings on demand.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Reading, error)
}

// Event converts the reading to its bus form.
func (r Reading) Event() events.Reading {
	descriptor := r.Category.String()
	if !r.Category.Valid() {
		descriptor = "unknown"
	}
	return events.Reading{
		Row:        r.Row,
		Name:       r.Name,
		Category:   int(r.Category),
		Descriptor: descriptor,
		Percent:    r.Percent,
	}
}

// Events converts a batch of readings to their bus form.
func Events(readings []Reading) []events.Reading {
	out := make([]events.Reading, len(readings))
	for i, r := range readings {
		out[i] = r.Event()
	}
	return out
}
