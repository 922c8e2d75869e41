package led

import (
	"log/slog"
	"sync"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
)

// noop implements Driver for hosts without an LED strip
type noop struct {
	logger *slog.Logger

	mu     sync.Mutex
	frames int
	last   []indicator.Pixel
}

// newNoop creates a driver that keeps the last frame in memory
func newNoop(logger *slog.Logger) *noop {
	return &noop{
		logger: logger,
	}
}

// Transmit records the frame but drives no hardware
func (n *noop) Transmit(pixels []indicator.Pixel) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.frames++
	n.last = pixels
	n.logger.Debug("LED strip not available (no-op)", "frame", n.frames, "pixels", len(pixels))
	return nil
}

func (n *noop) Close() error {
	return nil
}

func (n *noop) Name() string {
	return KindNoop
}
