package indicator

import "errors"

var (
	// ErrInvalidRow is returned for the status row or a row past the matrix height.
	ErrInvalidRow = errors.New("invalid row")
	// ErrInvalidSegment is returned for a status segment past the configured count.
	ErrInvalidSegment = errors.New("invalid status segment")
	// ErrUnknownCategory is returned when a data category has no palette mapping.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrTransmission wraps a driver failure. The buffer keeps the new state.
	ErrTransmission = errors.New("transmission failed")
	// ErrInvalidLayout is returned when matrix dimensions cannot be rendered.
	ErrInvalidLayout = errors.New("invalid matrix layout")
)
