package indicator

// Brightness levels, in percent of full channel intensity.
const (
	FullBrightness    = 10
	PartialBrightness = 2
)

// ClampPercent limits a fill percentage to [0,100].
func ClampPercent(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	}
	return percent
}

// FillCounts returns how many pixels of a row of the given width are lit at
// full brightness and whether one more pixel is lit at partial brightness.
func FillCounts(width, percent int) (full int, partial bool) {
	percent = ClampPercent(percent)
	return percent * width / 100, (percent*width)%100 != 0
}

// renderRow walks the row in logical column order. Bounds are checked by the caller.
func renderRow(buf *Buffer, l Layout, row int, c Color, percent int) {
	full, partial := FillCounts(l.Width, percent)
	lit := c.RGB().Scale(FullBrightness)
	dim := c.RGB().Scale(PartialBrightness)

	for col := 0; col < l.Width; col++ {
		index := l.Address(row, col)
		switch {
		case col < full:
			buf.set(index, lit)
		case col == full && partial:
			buf.set(index, dim)
		default:
			buf.set(index, RGB{})
		}
	}
}

func renderStatus(buf *Buffer, l Layout, segment int, c Color) {
	first, width := l.Segment(segment)
	lit := c.RGB().Scale(FullBrightness)
	for col := first; col < first+width; col++ {
		buf.set(l.Address(StatusRow, col), lit)
	}
}
