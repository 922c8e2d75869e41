package indicator

import (
	"fmt"
	"log/slog"
	"sync"
)

// Transmitter pushes a full buffer to the LEDs.
type Transmitter interface {
	Transmit(pixels []Pixel) error
}

// Engine owns the pixel buffer. Every mutation is followed by a transmit
// under the same lock, so concurrent callers never interleave frames.
type Engine struct {
	mu     sync.Mutex
	layout Layout
	buf    *Buffer
	tx     Transmitter
	logger *slog.Logger
}

// New creates an engine for a validated layout. The buffer starts dark and
// nothing is transmitted until the first render or Clear.
func New(layout Layout, tx Transmitter, logger *slog.Logger) (*Engine, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		layout: layout,
		buf:    NewBuffer(layout.PixelCount()),
		tx:     tx,
		logger: logger,
	}, nil
}

// Layout returns the matrix geometry.
func (e *Engine) Layout() Layout {
	return e.layout
}

// SetRow fills a data row with c at the given percentage. Percent is clamped
// to [0,100]. The status row and rows past the matrix are rejected without
// touching the buffer.
func (e *Engine) SetRow(row int, c Color, percent int) error {
	if row <= StatusRow || row >= e.layout.Height {
		return fmt.Errorf("%w: %d (data rows are 1..%d)", ErrInvalidRow, row, e.layout.Height-1)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	renderRow(e.buf, e.layout, row, c, percent)
	e.logger.Debug("Rendered row", "row", row, "color", c, "percent", ClampPercent(percent))
	return e.transmitLocked()
}

// SetStatus lights a status segment in c.
func (e *Engine) SetStatus(segment int, c Color) error {
	if segment < 0 || segment >= e.layout.Segments {
		return fmt.Errorf("%w: %d (have %d segments)", ErrInvalidSegment, segment, e.layout.Segments)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	renderStatus(e.buf, e.layout, segment, c)
	e.logger.Debug("Rendered status segment", "segment", segment, "color", c)
	return e.transmitLocked()
}

// Clear turns every pixel off and transmits.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.buf.clear()
	return e.transmitLocked()
}

// Flush retransmits the current buffer, e.g. after a driver recovered.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transmitLocked()
}

// Snapshot returns a copy of the buffer in physical order.
func (e *Engine) Snapshot() []Pixel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Pixels()
}

// Grid returns the buffer as rows of logical columns.
func (e *Engine) Grid() [][]RGB {
	e.mu.Lock()
	defer e.mu.Unlock()

	grid := make([][]RGB, e.layout.Height)
	for row := range grid {
		grid[row] = make([]RGB, e.layout.Width)
		for col := range grid[row] {
			grid[row][col] = e.buf.At(e.layout.Address(row, col))
		}
	}
	return grid
}

func (e *Engine) transmitLocked() error {
	if e.tx == nil {
		return nil
	}
	if err := e.tx.Transmit(e.buf.Pixels()); err != nil {
		return fmt.Errorf("%w: %w", ErrTransmission, err)
	}
	return nil
}
