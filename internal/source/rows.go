package source

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/The-Bear-Den/power-indicator/internal/logging"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// Row value types in an energy rows payload.
const (
	RowTypeRange   = "range"
	RowTypePercent = "percent"
)

// ErrMalformedRows is returned when a payload has no rows array.
var ErrMalformedRows = errors.New("malformed rows payload")

type rowsPayload struct {
	Rows *[]json.RawMessage `json:"rows"`
}

type rowItem struct {
	Name       string   `json:"name"`
	Type       *string  `json:"type"`
	Value      *float64 `json:"value"`
	UpperValue *float64 `json:"upper_value"`
	Descriptor *string  `json:"descriptor"`
}

// ParseRows decodes an energy rows payload:
//
//	{"rows":[{"name":"solar","type":"range","value":3,"upper_value":6}, ...]}
//
// Entry i renders on data row i+1. Entries that cannot be rendered are
// skipped with a warning but still consume a row. Without a descriptor the
// tier follows the row position.
func ParseRows(data []byte, logger logging.Logger) ([]Reading, error) {
	var payload rowsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRows, err)
	}
	if payload.Rows == nil {
		return nil, fmt.Errorf("%w: 'rows' is missing or not an array", ErrMalformedRows)
	}

	readings := make([]Reading, 0, len(*payload.Rows))
	for i, raw := range *payload.Rows {
		var item rowItem
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Warn("Skipping invalid row item", "index", i, "error", err)
			continue
		}
		name := item.Name
		if name == "" {
			name = "unknown"
		}
		if item.Type == nil {
			logger.Warn("Skipping row item without a type", "index", i, "name", name)
			continue
		}

		percent, ok := rowPercent(item, *item.Type)
		if !ok {
			logger.Warn("Skipping row item with unusable value", "index", i, "name", name, "type", *item.Type)
			continue
		}

		category := positionalCategory(i)
		if item.Descriptor != nil {
			// Unknown descriptors pass through so the controller can flag them.
			category, _ = price.ParseDescriptor(*item.Descriptor)
		}

		readings = append(readings, Reading{
			Row:      i + 1,
			Name:     name,
			Category: category,
			Percent:  percent,
		})
	}
	return readings, nil
}

func rowPercent(item rowItem, kind string) (int, bool) {
	switch kind {
	case RowTypePercent:
		if item.Value == nil {
			return 0, false
		}
		return int(*item.Value), true
	case RowTypeRange:
		if item.Value == nil || item.UpperValue == nil {
			return 0, false
		}
		upper := int(*item.UpperValue)
		if upper == 0 {
			return 0, false
		}
		return int(*item.Value) * 100 / upper, true
	}
	return 0, false
}

// positionalCategory gives row i the tier at the same ordinal, saturating at Spike.
func positionalCategory(i int) price.Category {
	if i > int(price.Spike) {
		return price.Spike
	}
	return price.Category(i)
}
