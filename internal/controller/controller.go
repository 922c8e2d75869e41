// Package controller decides what the matrix shows. It owns the meaning of
// each status segment and data row and turns collaborator events into
// renders on the indicator engine.
package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/metrics"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// Renderer is the part of the indicator engine the controller drives.
type Renderer interface {
	SetRow(row int, c indicator.Color, percent int) error
	SetStatus(segment int, c indicator.Color) error
	Layout() indicator.Layout
}

// Options assigns meaning to the status segments.
type Options struct {
	// Links names the collaborator that owns each segment, e.g. "network".
	Links []string
	// DataSegment turns red when a source fails or sends an unknown tier.
	DataSegment int
}

// SegmentStatus is the current state of one status segment.
type SegmentStatus struct {
	Segment int       `json:"segment" example:"0" doc:"Status segment index"`
	Link    string    `json:"link" example:"network" doc:"Collaborator that owns the segment"`
	State   string    `json:"state" example:"healthy" enum:"unknown,initializing,healthy,failed" doc:"Segment state"`
	Color   string    `json:"color" example:"green" doc:"Rendered color"`
	Reason  string    `json:"reason,omitempty" doc:"Last failure reason"`
	Since   time.Time `json:"since,omitzero" doc:"Time of the last state change"`
}

// RowStatus is the last accepted reading on a data row.
type RowStatus struct {
	Row        int       `json:"row" example:"1" doc:"Data row"`
	Name       string    `json:"name,omitempty" example:"general" doc:"Reading name"`
	Descriptor string    `json:"descriptor" example:"low" doc:"Price tier"`
	Percent    int       `json:"percent" example:"42" doc:"Fill percentage after clamping"`
	Color      string    `json:"color" example:"purple" doc:"Rendered color"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Time of the last render"`
}

type segment struct {
	state  SegmentState
	since  time.Time
	reason string
}

// Controller routes connectivity and price events to the indicator engine.
type Controller struct {
	renderer    Renderer
	eventBus    *events.Bus
	opts        Options
	unsubscribe []func()
	logger      *slog.Logger

	mu       sync.Mutex
	segments []segment
	rows     map[int]RowStatus
}

// New creates a controller for the renderer's layout. All segments start Unknown.
func New(renderer Renderer, eventBus *events.Bus, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		renderer: renderer,
		eventBus: eventBus,
		opts:     opts,
		logger:   logger,
		segments: make([]segment, renderer.Layout().Segments),
		rows:     make(map[int]RowStatus),
	}
}

// Start subscribes to collaborator events.
func (c *Controller) Start() {
	if c.eventBus == nil {
		return
	}
	c.unsubscribe = append(c.unsubscribe,
		c.eventBus.Subscribe(c.handleConnectivity),
		c.eventBus.Subscribe(func(e events.PriceUpdatedEvent) {
			_ = c.OnReadings(e.Source, e.Readings)
		}),
		c.eventBus.Subscribe(func(e events.SourceErrorEvent) {
			c.OnSourceError(e.Source, errors.New(e.Error))
		}),
	)
	c.logger.Info("Indicator controller started", "segments", len(c.segments), "data_segment", c.opts.DataSegment)
}

// Stop unsubscribes from events.
func (c *Controller) Stop() {
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
	c.logger.Info("Indicator controller stopped")
}

func (c *Controller) handleConnectivity(e events.ConnectivityChangedEvent) {
	switch e.State {
	case events.LinkConnecting:
		_ = c.OnConnecting(e.Segment)
	case events.LinkUp:
		_ = c.OnConnectivityEvent(e.Segment, true)
	case events.LinkDown:
		_ = c.setState(e.Segment, Failed, e.Reason)
	default:
		c.logger.Warn("Ignoring unknown link state", "link", e.Link, "state", e.State)
	}
}

// OnConnecting shows a segment as initializing (yellow).
func (c *Controller) OnConnecting(segment int) error {
	return c.setState(segment, Initializing, "")
}

// OnConnectivityEvent shows a segment as healthy (green) or failed (red).
func (c *Controller) OnConnectivityEvent(segment int, healthy bool) error {
	if healthy {
		return c.setState(segment, Healthy, "")
	}
	return c.setState(segment, Failed, "link down")
}

// OnDataUpdate renders a data row in the color of its price tier. An unknown
// tier leaves the row as it was and marks the data segment failed.
func (c *Controller) OnDataUpdate(row int, category price.Category, percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderRowLocked(row, "", category, percent)
}

// OnReadings renders a batch of rows from one source update. The data segment
// turns healthy when every tier in the batch was recognized.
func (c *Controller) OnReadings(source string, readings []events.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, r := range readings {
		if err := c.renderRowLocked(r.Row, r.Name, price.Category(r.Category), r.Percent); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", r.Row, err))
		}
	}
	err := errors.Join(errs...)

	if len(readings) > 0 && !errors.Is(err, indicator.ErrUnknownCategory) && c.dataSegmentValid() &&
		c.segments[c.opts.DataSegment].state != Healthy {
		_ = c.setStateLocked(c.opts.DataSegment, Healthy, "")
	}

	c.logger.Debug("Applied readings", "source", source, "rows", len(readings), "errors", len(errs))
	return err
}

// OnSourceError marks the data segment failed. Rows keep their last values.
func (c *Controller) OnSourceError(source string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Warn("Price source failed", "source", source, "error", err)
	c.failDataLocked(err.Error())
}

// Segments returns the state of every status segment.
func (c *Controller) Segments() []SegmentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SegmentStatus, len(c.segments))
	for i, s := range c.segments {
		out[i] = SegmentStatus{
			Segment: i,
			Link:    c.linkName(i),
			State:   s.state.String(),
			Color:   s.state.Color().String(),
			Reason:  s.reason,
			Since:   s.since,
		}
	}
	return out
}

// Rows returns the last accepted reading of every rendered row, ordered by row.
func (c *Controller) Rows() []RowStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]RowStatus, 0, len(c.rows))
	for _, r := range c.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

func (c *Controller) setState(segment int, to SegmentState, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStateLocked(segment, to, reason)
}

func (c *Controller) setStateLocked(seg int, to SegmentState, reason string) error {
	if seg < 0 || seg >= len(c.segments) {
		err := fmt.Errorf("%w: %d (have %d segments)", indicator.ErrInvalidSegment, seg, len(c.segments))
		c.logger.Warn("Rejected status update", "segment", seg, "state", to, "error", err)
		metrics.RecordRender("segment", metrics.ResultRejected)
		return err
	}

	err := c.renderer.SetStatus(seg, to.Color())
	if err != nil && !errors.Is(err, indicator.ErrTransmission) {
		c.logger.Warn("Rejected status update", "segment", seg, "state", to, "error", err)
		metrics.RecordRender("segment", metrics.ResultRejected)
		return err
	}

	// The buffer holds the new color even when the driver failed.
	from := c.segments[seg].state
	c.segments[seg] = segment{state: to, since: time.Now(), reason: reason}
	metrics.SetSegmentState(seg, int(to))

	if from != to {
		c.logger.Info("Status segment changed", "segment", seg, "link", c.linkName(seg), "from", from, "to", to)
	}
	c.recordResult("segment", err)

	c.publish(events.IndicatorRenderedEvent{
		Target: "segment",
		Index:  seg,
		Color:  to.Color().String(),
		State:  to.String(),
		Error:  errString(err),
	})
	return err
}

func (c *Controller) renderRowLocked(row int, name string, category price.Category, percent int) error {
	color, err := CategoryColor(category)
	if err != nil {
		c.logger.Warn("Unknown price category, keeping last row value", "row", row, "category", int(category))
		metrics.RecordRender("row", metrics.ResultRejected)
		c.failDataLocked(err.Error())
		return err
	}

	err = c.renderer.SetRow(row, color, percent)
	if err != nil && !errors.Is(err, indicator.ErrTransmission) {
		c.logger.Warn("Rejected row update", "row", row, "error", err)
		metrics.RecordRender("row", metrics.ResultRejected)
		return err
	}

	percent = indicator.ClampPercent(percent)
	c.rows[row] = RowStatus{
		Row:        row,
		Name:       name,
		Descriptor: category.String(),
		Percent:    percent,
		Color:      color.String(),
		UpdatedAt:  time.Now(),
	}
	metrics.SetRow(row, int(category), percent)
	c.recordResult("row", err)

	c.publish(events.IndicatorRenderedEvent{
		Target:  "row",
		Index:   row,
		Color:   color.String(),
		Percent: percent,
		Error:   errString(err),
	})
	return err
}

func (c *Controller) failDataLocked(reason string) {
	if !c.dataSegmentValid() {
		return
	}
	_ = c.setStateLocked(c.opts.DataSegment, Failed, reason)
}

func (c *Controller) dataSegmentValid() bool {
	return c.opts.DataSegment >= 0 && c.opts.DataSegment < len(c.segments)
}

func (c *Controller) linkName(seg int) string {
	if seg < len(c.opts.Links) {
		return c.opts.Links[seg]
	}
	return fmt.Sprintf("segment-%d", seg)
}

func (c *Controller) recordResult(target string, err error) {
	if err != nil {
		c.logger.Warn("Transmission failed, buffer kept", "target", target, "error", err)
		metrics.RecordRender(target, metrics.ResultTxFailed)
		return
	}
	metrics.RecordRender(target, metrics.ResultOK)
}

func (c *Controller) publish(ev events.IndicatorRenderedEvent) {
	if c.eventBus == nil {
		return
	}
	ev.Timestamp = time.Now().Format(time.RFC3339)
	c.eventBus.Publish(ev)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
