package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

type flakyTransmitter struct {
	mu  sync.Mutex
	err error
	n   int
}

func (f *flakyTransmitter) Transmit([]indicator.Pixel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return f.err
}

func (f *flakyTransmitter) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

var testLayout = indicator.Layout{Width: 7, Height: 7, Segments: 2}

func newTestController(t *testing.T, bus *events.Bus) (*Controller, *indicator.Engine, *flakyTransmitter) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tx := &flakyTransmitter{}
	engine, err := indicator.New(testLayout, tx, logger)
	require.NoError(t, err)
	c := New(engine, bus, Options{Links: []string{"network", "data"}, DataSegment: 1}, logger)
	return c, engine, tx
}

func segmentColor(e *indicator.Engine, seg int) indicator.RGB {
	first, _ := e.Layout().Segment(seg)
	return e.Grid()[indicator.StatusRow][first]
}

func scaled(c indicator.Color) indicator.RGB {
	return c.RGB().Scale(indicator.FullBrightness)
}

func TestCategoryColorTable(t *testing.T) {
	want := map[price.Category]indicator.Color{
		price.Negative:     indicator.Blue,
		price.ExtremelyLow: indicator.Cyan,
		price.VeryLow:      indicator.Red,
		price.Low:          indicator.Purple,
		price.Neutral:      indicator.Yellow,
		price.High:         indicator.Yellow,
		price.Spike:        indicator.Yellow,
	}
	for _, cat := range price.Categories {
		got, err := CategoryColor(cat)
		require.NoError(t, err)
		assert.Equal(t, want[cat], got, cat.String())
	}

	_, err := CategoryColor(price.Category(7))
	assert.True(t, errors.Is(err, indicator.ErrUnknownCategory))
	_, err = CategoryColor(price.Unknown)
	assert.True(t, errors.Is(err, indicator.ErrUnknownCategory))
}

func TestSegmentLifecycle(t *testing.T) {
	c, engine, _ := newTestController(t, nil)

	assert.Equal(t, indicator.RGB{}, segmentColor(engine, 0), "unknown renders dark")
	assert.Equal(t, "unknown", c.Segments()[0].State)

	require.NoError(t, c.OnConnecting(0))
	assert.Equal(t, scaled(indicator.Yellow), segmentColor(engine, 0))

	require.NoError(t, c.OnConnectivityEvent(0, true))
	assert.Equal(t, scaled(indicator.Green), segmentColor(engine, 0))

	require.NoError(t, c.OnConnectivityEvent(0, false))
	assert.Equal(t, scaled(indicator.Red), segmentColor(engine, 0))

	require.NoError(t, c.OnConnectivityEvent(0, true))
	assert.Equal(t, scaled(indicator.Green), segmentColor(engine, 0))

	segs := c.Segments()
	assert.Equal(t, "healthy", segs[0].State)
	assert.Equal(t, "network", segs[0].Link)
	assert.Equal(t, "unknown", segs[1].State)
	assert.Equal(t, indicator.RGB{}, segmentColor(engine, 1), "other segment untouched")
}

func TestConnectivityInvalidSegment(t *testing.T) {
	c, engine, tx := newTestController(t, nil)
	before := engine.Snapshot()

	err := c.OnConnectivityEvent(5, true)
	assert.True(t, errors.Is(err, indicator.ErrInvalidSegment))
	assert.Equal(t, before, engine.Snapshot())
	assert.Equal(t, 0, tx.n)
}

func TestOnDataUpdateRendersRow(t *testing.T) {
	c, engine, _ := newTestController(t, nil)

	require.NoError(t, c.OnDataUpdate(2, price.Low, 100))

	for _, px := range engine.Grid()[2] {
		assert.Equal(t, scaled(indicator.Purple), px)
	}
	rows := c.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "low", rows[0].Descriptor)
	assert.Equal(t, 100, rows[0].Percent)
}

func TestOnDataUpdateUnknownCategoryFailsSoft(t *testing.T) {
	c, engine, _ := newTestController(t, nil)

	require.NoError(t, c.OnDataUpdate(1, price.Neutral, 50))
	rowBefore := engine.Grid()[1]

	err := c.OnDataUpdate(1, price.Category(42), 100)
	assert.True(t, errors.Is(err, indicator.ErrUnknownCategory))

	assert.Equal(t, rowBefore, engine.Grid()[1], "stale row stays displayed")
	assert.Equal(t, scaled(indicator.Red), segmentColor(engine, 1), "data segment flags the problem")
	assert.Equal(t, "failed", c.Segments()[1].State)
}

func TestOnDataUpdateInvalidRow(t *testing.T) {
	c, engine, _ := newTestController(t, nil)
	before := engine.Snapshot()

	for _, row := range []int{0, 7} {
		err := c.OnDataUpdate(row, price.High, 50)
		assert.True(t, errors.Is(err, indicator.ErrInvalidRow), "row %d", row)
	}
	assert.Equal(t, before, engine.Snapshot())
	assert.Empty(t, c.Rows())
}

func TestTransmissionFailureKeepsState(t *testing.T) {
	c, engine, tx := newTestController(t, nil)
	tx.fail(errors.New("spi closed"))

	err := c.OnConnectivityEvent(0, true)
	assert.True(t, errors.Is(err, indicator.ErrTransmission))
	assert.Equal(t, "healthy", c.Segments()[0].State)
	assert.Equal(t, scaled(indicator.Green), segmentColor(engine, 0))

	err = c.OnDataUpdate(3, price.Negative, 100)
	assert.True(t, errors.Is(err, indicator.ErrTransmission))
	require.Len(t, c.Rows(), 1)
}

func TestOnReadingsRestoresDataSegment(t *testing.T) {
	c, engine, _ := newTestController(t, nil)

	c.OnSourceError("amber", errors.New("timeout"))
	assert.Equal(t, "failed", c.Segments()[1].State)
	assert.Equal(t, "timeout", c.Segments()[1].Reason)

	err := c.OnReadings("amber", []events.Reading{
		{Row: 1, Category: int(price.Spike), Percent: 100},
		{Row: 2, Category: int(price.Negative), Percent: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, "healthy", c.Segments()[1].State)
	assert.Equal(t, scaled(indicator.Green), segmentColor(engine, 1))
	assert.Len(t, c.Rows(), 2)
}

func TestOnReadingsWithUnknownTierStaysFailed(t *testing.T) {
	c, _, _ := newTestController(t, nil)

	err := c.OnReadings("mqtt", []events.Reading{
		{Row: 1, Category: int(price.Low), Percent: 30},
		{Row: 2, Category: int(price.Unknown), Percent: 30},
	})
	assert.True(t, errors.Is(err, indicator.ErrUnknownCategory))
	assert.Equal(t, "failed", c.Segments()[1].State)
	assert.Len(t, c.Rows(), 1, "valid rows still render")
}

func TestControllerSubscribesToBus(t *testing.T) {
	bus := events.New()
	c, engine, _ := newTestController(t, bus)

	rendered := make(chan events.IndicatorRenderedEvent, 16)
	unsub := bus.Subscribe(func(e events.IndicatorRenderedEvent) { rendered <- e })
	defer unsub()

	c.Start()
	defer c.Stop()

	bus.Publish(events.ConnectivityChangedEvent{Segment: 0, Link: "network", State: events.LinkUp})
	bus.Publish(events.PriceUpdatedEvent{Source: "test", Readings: []events.Reading{
		{Row: 4, Category: int(price.ExtremelyLow), Percent: 50},
	}})

	assert.Eventually(t, func() bool {
		return c.Segments()[0].State == "healthy" && len(c.Rows()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, scaled(indicator.Cyan), engine.Grid()[4][0])

	select {
	case e := <-rendered:
		assert.NotEmpty(t, e.Target)
	case <-time.After(time.Second):
		t.Fatal("no render event published")
	}

	bus.Publish(events.SourceErrorEvent{Source: "test", Error: "boom"})
	assert.Eventually(t, func() bool {
		return c.Segments()[1].State == "failed"
	}, time.Second, 10*time.Millisecond)

	bus.Publish(events.ConnectivityChangedEvent{Segment: 1, Link: "data", State: events.LinkConnecting})
	assert.Eventually(t, func() bool {
		return c.Segments()[1].State == "initializing"
	}, time.Second, 10*time.Millisecond)
}

func TestSegmentStatusOmitsUnsetSince(t *testing.T) {
	data, err := json.Marshal(SegmentStatus{Segment: 1, Link: "data", State: "unknown", Color: "black"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "since")

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err = json.Marshal(SegmentStatus{Segment: 1, Since: at})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"since":"2026-01-02T03:04:05Z"`)
}
