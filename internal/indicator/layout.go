package indicator

import "fmt"

// StatusRow is reserved for health segments.
const StatusRow = 0

// Layout describes the matrix geometry and how the status row is split.
type Layout struct {
	Width    int `json:"width" doc:"Pixels per row"`
	Height   int `json:"height" doc:"Number of rows, including the status row"`
	Segments int `json:"segments" doc:"Number of status segments in row 0"`
}

// Validate checks that the layout has a status row, at least one data row,
// and at least one pixel per status segment.
func (l Layout) Validate() error {
	if l.Width < 1 {
		return fmt.Errorf("%w: width %d must be at least 1", ErrInvalidLayout, l.Width)
	}
	if l.Height < 2 {
		return fmt.Errorf("%w: height %d must be at least 2", ErrInvalidLayout, l.Height)
	}
	if l.Segments < 1 || l.Segments > l.Width {
		return fmt.Errorf("%w: segments %d must be between 1 and width %d", ErrInvalidLayout, l.Segments, l.Width)
	}
	return nil
}

// PixelCount returns the number of physical LEDs.
func (l Layout) PixelCount() int {
	return l.Width * l.Height
}

// Address maps a logical coordinate to a physical pixel index.
//
// The strip snakes across the matrix: even rows run right to left so that
// column 0 is the last pixel of the row, odd rows run left to right. The
// caller guarantees 0 <= row < Height and 0 <= col < Width.
func (l Layout) Address(row, col int) int {
	if row%2 == 0 {
		return row*l.Width + (l.Width - 1 - col)
	}
	return row*l.Width + col
}

// Segment returns the first logical column and width of a status segment.
// The last segment absorbs Width % Segments.
func (l Layout) Segment(segment int) (first, width int) {
	base := l.Width / l.Segments
	width = base
	if segment == l.Segments-1 {
		width += l.Width % l.Segments
	}
	return segment * base, width
}

// DataRows returns the number of rows available for data.
func (l Layout) DataRows() int {
	return l.Height - 1
}
