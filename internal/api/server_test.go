package api

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Bear-Den/power-indicator/internal/api/models"
	"github.com/The-Bear-Den/power-indicator/internal/controller"
	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
)

type switchableTransmitter struct {
	mu  sync.Mutex
	err error
}

func (s *switchableTransmitter) Transmit([]indicator.Pixel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *switchableTransmitter) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fixture struct {
	server *Server
	engine *indicator.Engine
	ctrl   *controller.Controller
	bus    *events.Bus
	tx     *switchableTransmitter
}

func newFixture(t *testing.T, user, pass string) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tx := &switchableTransmitter{}
	engine, err := indicator.New(indicator.Layout{Width: 7, Height: 7, Segments: 2}, tx, logger)
	require.NoError(t, err)

	bus := events.New()
	ctrl := controller.New(engine, bus, controller.Options{Links: []string{"network", "data"}, DataSegment: 1}, logger)

	server := NewServer(&Options{
		AuthUsername: user,
		AuthPassword: pass,
		Matrix:       engine,
		Indicator:    ctrl,
		EventBus:     bus,
		PrometheusHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("# metrics\n"))
		}),
	})
	return &fixture{server: server, engine: engine, ctrl: ctrl, bus: bus, tx: tx}
}

func basicAuth(user, pass string) string {
	return "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestHealthAndVersionSkipAuth(t *testing.T) {
	f := newFixture(t, "admin", "secret")
	api := humatest.Wrap(t, f.server.GetAPI())

	resp := api.Get("/api/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)

	resp = api.Get("/api/version")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"go_version"`)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, "admin", "secret")
	api := humatest.Wrap(t, f.server.GetAPI())

	resp := api.Get("/api/segments")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, authRealm, resp.Header().Get("WWW-Authenticate"))

	resp = api.Get("/api/segments", basicAuth("admin", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = api.Get("/api/segments", basicAuth("admin", "secret"))
	assert.Equal(t, http.StatusOK, resp.Code)

	query := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	resp = api.Get("/api/segments?auth=" + query)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSegmentOverride(t *testing.T) {
	f := newFixture(t, "", "")
	api := humatest.Wrap(t, f.server.GetAPI())

	resp := api.Post("/api/segments/0", map[string]any{"state": "healthy"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var seg controller.SegmentStatus
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &seg))
	assert.Equal(t, 0, seg.Segment)
	assert.Equal(t, "network", seg.Link)
	assert.Equal(t, "healthy", seg.State)
	assert.Equal(t, "green", seg.Color)

	first, _ := f.engine.Layout().Segment(0)
	assert.Equal(t, indicator.Green.RGB().Scale(indicator.FullBrightness), f.engine.Grid()[0][first])

	resp = api.Post("/api/segments/5", map[string]any{"state": "failed"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = api.Post("/api/segments/0", map[string]any{"state": "unknown"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, "state enum is validated")
}

func TestRowOverride(t *testing.T) {
	f := newFixture(t, "", "")
	api := humatest.Wrap(t, f.server.GetAPI())

	resp := api.Post("/api/rows/2", map[string]any{"descriptor": "low", "percent": 150})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var row controller.RowStatus
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &row))
	assert.Equal(t, 2, row.Row)
	assert.Equal(t, 100, row.Percent)
	assert.Equal(t, "purple", row.Color)

	resp = api.Get("/api/rows")
	require.Equal(t, http.StatusOK, resp.Code)
	var rows models.RowListData
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rows))
	require.Len(t, rows.Rows, 1)

	resp = api.Post("/api/rows/7", map[string]any{"descriptor": "low", "percent": 10})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = api.Post("/api/rows/1", map[string]any{"descriptor": "cheap", "percent": 10})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestRowOverrideTransmissionFailure(t *testing.T) {
	f := newFixture(t, "", "")
	api := humatest.Wrap(t, f.server.GetAPI())
	f.tx.fail(errors.New("spi: bus error"))

	resp := api.Post("/api/rows/1", map[string]any{"descriptor": "negative", "percent": 100})
	assert.Equal(t, http.StatusBadGateway, resp.Code)

	// The buffer still holds the new frame.
	assert.Equal(t, indicator.Blue.RGB().Scale(indicator.FullBrightness), f.engine.Grid()[1][0])
}

func TestMatrix(t *testing.T) {
	f := newFixture(t, "", "")
	api := humatest.Wrap(t, f.server.GetAPI())
	require.NoError(t, f.engine.SetRow(3, indicator.Red, 50))

	resp := api.Get("/api/matrix")
	require.Equal(t, http.StatusOK, resp.Code)

	var m models.MatrixData
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &m))
	assert.Equal(t, indicator.Layout{Width: 7, Height: 7, Segments: 2}, m.Layout)
	require.Len(t, m.Grid, 7)
	require.Len(t, m.Pixels, 49)
	assert.Equal(t, indicator.Red.RGB().Scale(indicator.FullBrightness), m.Grid[3][0])
	assert.Equal(t, indicator.Red.RGB().Scale(indicator.PartialBrightness), m.Grid[3][3])
}

func TestLogs(t *testing.T) {
	f := newFixture(t, "", "")
	api := humatest.Wrap(t, f.server.GetAPI())

	resp := api.Get("/api/logs?limit=5")
	require.Equal(t, http.StatusOK, resp.Code)
	var logs models.LogsData
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &logs))
	assert.LessOrEqual(t, logs.Count, 5)
}

func TestMetricsAndPreflight(t *testing.T) {
	f := newFixture(t, "admin", "secret")
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/segments/0", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEventStream(t *testing.T) {
	f := newFixture(t, "test", "test")
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	resp, err := http.Get(ts.URL + "/api/events?auth=" + credentials)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				lines <- line
			}
		}
	}()

	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SSE data")
			return ""
		}
	}

	// Snapshot of both segments first.
	assert.Contains(t, next(), `"state":"unknown"`)
	assert.Contains(t, next(), `"state":"unknown"`)

	f.bus.Publish(events.SourceErrorEvent{Source: "amber", Error: "upstream 503", Timestamp: "now"})
	assert.Contains(t, next(), "upstream 503")
}

func TestStopBeforeStart(t *testing.T) {
	f := newFixture(t, "", "")
	require.NoError(t, f.server.Stop())

	err := f.server.Start("127.0.0.1:0")
	assert.ErrorIs(t, err, http.ErrServerClosed)
}

func TestStartAndStopConcurrently(t *testing.T) {
	f := newFixture(t, "", "")

	done := make(chan error, 1)
	go func() { done <- f.server.Start("127.0.0.1:0") }()
	require.NoError(t, f.server.Stop())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
