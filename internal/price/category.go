// Package price defines the ordered price tiers shown on data rows.
package price

import "fmt"

// Category is a price tier. Ordinals are stable and index the row color table.
type Category int

// Price tiers, cheapest first.
const (
	Negative Category = iota
	ExtremelyLow
	VeryLow
	Low
	Neutral
	High
	Spike
)

// Unknown marks a descriptor that could not be parsed. It is never Valid.
const Unknown Category = -1

// Categories lists every known tier in ordinal order.
var Categories = []Category{Negative, ExtremelyLow, VeryLow, Low, Neutral, High, Spike}

// Valid reports whether c is a known tier.
func (c Category) Valid() bool {
	return c >= Negative && c <= Spike
}

// String returns the descriptor as the price feed spells it.
func (c Category) String() string {
	switch c {
	case Negative:
		return "negative"
	case ExtremelyLow:
		return "extremelyLow"
	case VeryLow:
		return "veryLow"
	case Low:
		return "low"
	case Neutral:
		return "neutral"
	case High:
		return "high"
	case Spike:
		return "spike"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseDescriptor maps a feed descriptor to a tier. Unrecognized descriptors
// return Unknown and an error.
func ParseDescriptor(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("unknown price descriptor %q", s)
}
