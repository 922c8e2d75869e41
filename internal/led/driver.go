// Package led transmits indicator frames to an addressable LED strip and
// drives the board's own status LED.
package led

import (
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
)

// Driver pushes frames to physical LEDs.
type Driver interface {
	// Transmit sends a full frame. Pixels are addressed by physical index.
	Transmit(pixels []indicator.Pixel) error
	// Close turns the strip off and releases the hardware.
	Close() error
	// Name identifies the driver in logs and metrics.
	Name() string
}

// Driver kinds accepted by New.
const (
	KindAuto   = "auto"
	KindSPI    = "spi"
	KindWS281x = "ws281x"
	KindNoop   = "noop"
)

// Options selects and configures a driver.
type Options struct {
	Kind       string
	PixelCount int
	// SPIPort is a periph port name; empty picks the first one.
	SPIPort    string
	SPIFreqKHz int
	// GPIOPin is the BCM data pin for the ws281x driver.
	GPIOPin int
	// DMA channel for the ws281x driver.
	DMA int
}

// packRGB converts a pixel to the 0x00RRGGBB word used by the ws281x library.
func packRGB(c indicator.RGB) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
