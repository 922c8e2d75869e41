package indicator

// Pixel is one physical LED and its current value.
type Pixel struct {
	Index int `json:"index" doc:"Physical position on the strip"`
	Color RGB `json:"color" doc:"Current value after brightness scaling"`
}

// Buffer holds one Pixel per physical LED in wiring order.
type Buffer struct {
	pixels []Pixel
}

// NewBuffer creates a buffer of count pixels, all off.
func NewBuffer(count int) *Buffer {
	pixels := make([]Pixel, count)
	for i := range pixels {
		pixels[i].Index = i
	}
	return &Buffer{pixels: pixels}
}

// Len returns the number of pixels.
func (b *Buffer) Len() int {
	return len(b.pixels)
}

func (b *Buffer) set(index int, c RGB) {
	b.pixels[index].Color = c
}

// At returns the value of the pixel at a physical index.
func (b *Buffer) At(index int) RGB {
	return b.pixels[index].Color
}

// Pixels returns a copy of the buffer contents.
func (b *Buffer) Pixels() []Pixel {
	out := make([]Pixel, len(b.pixels))
	copy(out, b.pixels)
	return out
}

func (b *Buffer) clear() {
	for i := range b.pixels {
		b.pixels[i].Color = RGB{}
	}
}

// Bytes flattens pixels into R,G,B triplets ordered by physical index.
func Bytes(pixels []Pixel) []byte {
	out := make([]byte, 3*len(pixels))
	for _, p := range pixels {
		if p.Index < 0 || p.Index >= len(pixels) {
			continue
		}
		o := 3 * p.Index
		out[o] = p.Color.R
		out[o+1] = p.Color.G
		out[o+2] = p.Color.B
	}
	return out
}
