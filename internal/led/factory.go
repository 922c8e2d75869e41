package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/metrics"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// New opens the requested driver. With KindAuto it picks a driver from the
// board model and falls back to no-op when no strip can be opened.
func New(opts Options, logger *slog.Logger) (Driver, error) {
	if opts.PixelCount < 1 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", opts.PixelCount)
	}

	var (
		d   Driver
		err error
	)
	switch opts.Kind {
	case KindSPI:
		d, err = newSPI(opts)
	case KindWS281x:
		d, err = newWS281x(opts)
	case KindNoop, "":
		d = newNoop(logger)
	case KindAuto:
		d = detect(opts, logger)
	default:
		return nil, fmt.Errorf("unknown LED driver %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LED driver ready", "driver", d.Name(), "pixels", opts.PixelCount)
	return instrumented{d}, nil
}

func detect(opts Options, logger *slog.Logger) Driver {
	boardModel := detectBoard()
	logger.Info("Detecting board for LED strip", "board_model", boardModel)

	candidates := []string{KindSPI}
	if strings.Contains(boardModel, "Raspberry Pi") {
		candidates = []string{KindWS281x, KindSPI}
	}

	for _, kind := range candidates {
		var (
			d   Driver
			err error
		)
		switch kind {
		case KindWS281x:
			d, err = newWS281x(opts)
		case KindSPI:
			d, err = newSPI(opts)
		}
		if err == nil {
			return d
		}
		logger.Info("LED driver unavailable", "driver", kind, "error", err)
	}

	logger.Info("No LED strip detected, using no-op driver", "board_model", boardModel)
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}

// instrumented counts every transmission by driver and result.
type instrumented struct {
	Driver
}

func (i instrumented) Transmit(pixels []indicator.Pixel) error {
	err := i.Driver.Transmit(pixels)
	metrics.RecordTransmission(i.Name(), err)
	return err
}
