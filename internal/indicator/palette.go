package indicator

import (
	"fmt"
	"strings"
)

// Color is a named palette entry.
type Color int

// Palette entries. Ordinals are stable.
const (
	Red Color = iota
	Green
	Blue
	Yellow
	Cyan
	Magenta
	White
	Orange
	Purple
	Black
)

// Colors lists every palette entry in declaration order.
var Colors = []Color{Red, Green, Blue, Yellow, Cyan, Magenta, White, Orange, Purple, Black}

// RGB is a single pixel value with one byte per channel.
type RGB struct {
	R uint8 `json:"r" doc:"Red channel"`
	G uint8 `json:"g" doc:"Green channel"`
	B uint8 `json:"b" doc:"Blue channel"`
}

// RGB returns the full-intensity value for the palette entry.
func (c Color) RGB() RGB {
	switch c {
	case Red:
		return RGB{255, 0, 0}
	case Green:
		return RGB{0, 255, 0}
	case Blue:
		return RGB{0, 0, 255}
	case Yellow:
		return RGB{255, 255, 0}
	case Cyan:
		return RGB{0, 255, 255}
	case Magenta, Purple:
		return RGB{255, 0, 255}
	case White:
		return RGB{255, 255, 255}
	case Orange:
		return RGB{255, 165, 0}
	case Black:
		return RGB{}
	}
	return RGB{}
}

// Valid reports whether c is a known palette entry.
func (c Color) Valid() bool {
	return c >= Red && c <= Black
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	case Cyan:
		return "cyan"
	case Magenta:
		return "magenta"
	case White:
		return "white"
	case Orange:
		return "orange"
	case Purple:
		return "purple"
	case Black:
		return "black"
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// ParseColor looks up a palette entry by name, ignoring case.
func ParseColor(name string) (Color, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Colors {
		if c.String() == want {
			return c, nil
		}
	}
	return Black, fmt.Errorf("unknown color %q", name)
}

// Scale applies a brightness percentage to each channel independently.
// Brightness above 100 is treated as 100.
func (v RGB) Scale(brightness int) RGB {
	if brightness > 100 {
		brightness = 100
	}
	if brightness < 0 {
		brightness = 0
	}
	return RGB{
		R: uint8(int(v.R) * brightness / 100),
		G: uint8(int(v.G) * brightness / 100),
		B: uint8(int(v.B) * brightness / 100),
	}
}
