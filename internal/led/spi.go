package led

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
)

const defaultSPIFreq = 2500 * physic.KiloHertz

// spiDriver encodes frames as NRZ pulses on the SPI MOSI line.
type spiDriver struct {
	port  spi.PortCloser
	dev   *nrzled.Dev
	count int
}

func newSPI(opts Options) (*spiDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	port, err := spireg.Open(opts.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", opts.SPIPort, err)
	}
	freq := defaultSPIFreq
	if opts.SPIFreqKHz > 0 {
		freq = physic.Frequency(opts.SPIFreqKHz) * physic.KiloHertz
	}
	return openSPI(port, opts.PixelCount, freq)
}

func openSPI(port spi.PortCloser, count int, freq physic.Frequency) (*spiDriver, error) {
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to create nrzled device: %w", err)
	}
	return &spiDriver{port: port, dev: dev, count: count}, nil
}

// Transmit writes the frame as RGB triplets in physical order.
func (d *spiDriver) Transmit(pixels []indicator.Pixel) error {
	if len(pixels) != d.count {
		return fmt.Errorf("frame has %d pixels, strip has %d", len(pixels), d.count)
	}
	if _, err := d.dev.Write(indicator.Bytes(pixels)); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (d *spiDriver) Close() error {
	return errors.Join(d.dev.Halt(), d.port.Close())
}

func (d *spiDriver) Name() string {
	return KindSPI
}
