// Package poller fetches readings from a source on a fixed interval and
// publishes them on the event bus.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/metrics"
	"github.com/The-Bear-Den/power-indicator/internal/source"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 30 * time.Second

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	// FetchTimeout bounds a single fetch. Defaults to the interval.
	FetchTimeout time.Duration
	Clock        clockwork.Clock
}

// Poller drives a source.Source. Failed polls are reported and the next
// attempt waits for the following tick.
type Poller struct {
	src      source.Source
	bus      *events.Bus
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	trigger  chan struct{}
}

// New creates a poller for src.
func New(src source.Source, bus *events.Bus, opts Options, logger *slog.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = opts.Interval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Poller{
		src:      src,
		bus:      bus,
		interval: opts.Interval,
		timeout:  opts.FetchTimeout,
		clock:    opts.Clock,
		logger:   logger.With("source", src.Name()),
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate poll. Requests made while one is pending
// are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run polls once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Poller started", "interval", p.interval)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return
		case <-ticker.Chan():
			p.poll(ctx)
		case <-p.trigger:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	readings, err := p.src.Fetch(fetchCtx)
	metrics.RecordPoll(p.src.Name(), started, err)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("Poll failed", "error", err)
		p.bus.Publish(events.SourceErrorEvent{
			Source:    p.src.Name(),
			Error:     err.Error(),
			Timestamp: p.clock.Now().Format(time.RFC3339),
		})
		return
	}

	p.logger.Debug("Poll succeeded", "readings", len(readings))
	p.bus.Publish(events.PriceUpdatedEvent{
		Source:    p.src.Name(),
		Readings:  source.Events(readings),
		Timestamp: p.clock.Now().Format(time.RFC3339),
	})
}
