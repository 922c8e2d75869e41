// Package network reports upstream reachability on a status segment.
package network

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/The-Bear-Den/power-indicator/internal/events"
)

const (
	DefaultProbeAddress = "1.1.1.1:53"
	DefaultInterval     = 15 * time.Second
	defaultDialTimeout  = 3 * time.Second
)

// DialFunc opens a connection to address. net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options configures a Monitor.
type Options struct {
	Segment  int
	Address  string
	Interval time.Duration
	Timeout  time.Duration
	Clock    clockwork.Clock
	Dial     DialFunc
}

// Monitor probes a TCP address and publishes a ConnectivityChangedEvent
// whenever reachability changes.
type Monitor struct {
	opts   Options
	bus    *events.Bus
	logger *slog.Logger
	state  string
}

// NewMonitor creates a monitor with defaults applied.
func NewMonitor(bus *events.Bus, opts Options, logger *slog.Logger) *Monitor {
	if opts.Address == "" {
		opts.Address = DefaultProbeAddress
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDialTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Dial == nil {
		d := &net.Dialer{}
		opts.Dial = d.DialContext
	}
	return &Monitor{opts: opts, bus: bus, logger: logger}
}

// Run reports connecting, probes immediately and then on every interval
// until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.publish(events.LinkConnecting, "")

	ticker := m.opts.Clock.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	conn, err := m.opts.Dial(dialCtx, "tcp", m.opts.Address)
	if conn != nil {
		conn.Close()
	}
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if m.state != events.LinkDown {
			m.logger.Warn("Network unreachable", "address", m.opts.Address, "error", err)
		}
		m.publish(events.LinkDown, err.Error())
		return
	}
	if m.state != events.LinkUp {
		m.logger.Info("Network reachable", "address", m.opts.Address)
	}
	m.publish(events.LinkUp, "")
}

func (m *Monitor) publish(state, reason string) {
	if state == m.state {
		return
	}
	m.state = state
	m.bus.Publish(events.ConnectivityChangedEvent{
		Segment:   m.opts.Segment,
		Link:      "network",
		State:     state,
		Reason:    reason,
		Timestamp: m.opts.Clock.Now().Format(time.RFC3339),
	})
}
