//go:build ws281x

package led

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
)

// ws281xDriver drives the strip through the PWM/DMA peripheral of a Raspberry Pi.
type ws281xDriver struct {
	dev   *ws2811.WS2811
	count int
}

// ws281xOptions derives device options without touching ws2811.DefaultOptions.
func ws281xOptions(opts Options) ws2811.Option {
	opt := ws2811.DefaultOptions
	opt.Channels = append([]ws2811.ChannelOption(nil), ws2811.DefaultOptions.Channels...)
	opt.Channels[0].GpioPin = opts.GPIOPin
	opt.Channels[0].LedCount = opts.PixelCount
	// Frames arrive already scaled.
	opt.Channels[0].Brightness = 255
	if opts.DMA > 0 {
		opt.DmaNum = opts.DMA
	}
	return opt
}

func newWS281x(opts Options) (Driver, error) {
	opt := ws281xOptions(opts)
	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ws281x device: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize ws281x on GPIO%d: %w", opts.GPIOPin, err)
	}
	return &ws281xDriver{dev: dev, count: opts.PixelCount}, nil
}

// Transmit copies the frame into the channel buffer and renders it.
func (d *ws281xDriver) Transmit(pixels []indicator.Pixel) error {
	leds := d.dev.Leds(0)
	for _, p := range pixels {
		if p.Index >= 0 && p.Index < len(leds) {
			leds[p.Index] = packRGB(p.Color)
		}
	}
	if err := d.dev.Render(); err != nil {
		return fmt.Errorf("ws281x render: %w", err)
	}
	return d.dev.Wait()
}

// Close blanks the strip and frees the DMA buffers.
func (d *ws281xDriver) Close() error {
	leds := d.dev.Leds(0)
	for i := range leds {
		leds[i] = 0
	}
	err := d.dev.Render()
	d.dev.Fini()
	return err
}

func (d *ws281xDriver) Name() string {
	return KindWS281x
}
