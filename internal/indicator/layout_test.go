package indicator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{"seven by seven", Layout{Width: 7, Height: 7, Segments: 2}, false},
		{"single data row", Layout{Width: 1, Height: 2, Segments: 1}, false},
		{"zero width", Layout{Width: 0, Height: 7, Segments: 1}, true},
		{"no data rows", Layout{Width: 7, Height: 1, Segments: 2}, true},
		{"no segments", Layout{Width: 7, Height: 7, Segments: 0}, true},
		{"more segments than pixels", Layout{Width: 3, Height: 7, Segments: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidLayout))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAddressSerpentine(t *testing.T) {
	l := Layout{Width: 7, Height: 3, Segments: 2}

	assert.Equal(t, 6, l.Address(0, 0), "even rows start at the right")
	assert.Equal(t, 0, l.Address(0, 6))
	assert.Equal(t, 7, l.Address(1, 0), "odd rows start at the left")
	assert.Equal(t, 13, l.Address(1, 6))
	assert.Equal(t, 20, l.Address(2, 0))
	assert.Equal(t, 14, l.Address(2, 6))
}

func TestAddressIsRowBijection(t *testing.T) {
	for _, l := range []Layout{
		{Width: 7, Height: 7, Segments: 2},
		{Width: 8, Height: 4, Segments: 3},
		{Width: 1, Height: 5, Segments: 1},
	} {
		seen := make(map[int]bool)
		for row := 0; row < l.Height; row++ {
			start := row * l.Width
			for col := 0; col < l.Width; col++ {
				idx := l.Address(row, col)
				assert.GreaterOrEqual(t, idx, start)
				assert.Less(t, idx, start+l.Width)
				assert.False(t, seen[idx], "index %d addressed twice", idx)
				seen[idx] = true
			}
		}
		assert.Len(t, seen, l.PixelCount())
	}
}

func TestAddressEvenOddMirrored(t *testing.T) {
	l := Layout{Width: 9, Height: 4, Segments: 3}
	for col := 0; col < l.Width; col++ {
		even := l.Address(2, col) - 2*l.Width
		odd := l.Address(3, col) - 3*l.Width
		assert.Equal(t, l.Width-1-odd, even, "column %d", col)
	}
}

func TestSegmentPartition(t *testing.T) {
	for _, l := range []Layout{
		{Width: 7, Height: 2, Segments: 2},
		{Width: 7, Height: 2, Segments: 3},
		{Width: 10, Height: 2, Segments: 4},
		{Width: 5, Height: 2, Segments: 5},
		{Width: 5, Height: 2, Segments: 1},
	} {
		next := 0
		for s := 0; s < l.Segments; s++ {
			first, width := l.Segment(s)
			assert.Equal(t, next, first, "segment %d of %+v leaves a gap or overlaps", s, l)
			if s == l.Segments-1 {
				assert.Equal(t, l.Width/l.Segments+l.Width%l.Segments, width)
			} else {
				assert.Equal(t, l.Width/l.Segments, width)
			}
			next = first + width
		}
		assert.Equal(t, l.Width, next, "segments of %+v must cover the row", l)
	}
}
