package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// DefaultAmberURL is the Amber Electric public API.
const DefaultAmberURL = "https://api.amber.com.au/v1"

// Amber channel types and the data row each renders on.
var amberChannelRows = map[string]int{
	"general":        1,
	"feedIn":         2,
	"controlledLoad": 3,
}

// AmberOptions configures the Amber price source.
type AmberOptions struct {
	BaseURL string
	APIKey  string
	// SiteID may be empty; the first active site on the account is used.
	SiteID string
	// PriceCeiling is the c/kWh price that fills a row completely.
	PriceCeiling float64
	RetryMax     int
	Timeout      time.Duration
}

type amberSite struct {
	ID     string `json:"id"`
	NMI    string `json:"nmi"`
	Status string `json:"status"`
}

type amberInterval struct {
	Type        string  `json:"type"`
	PerKwh      float64 `json:"perKwh"`
	Renewables  float64 `json:"renewables"`
	Descriptor  string  `json:"descriptor"`
	ChannelType string  `json:"channelType"`
}

// Amber polls current interval prices from the Amber Electric API.
type Amber struct {
	opts   AmberOptions
	client *retryablehttp.Client
	logger *slog.Logger

	mu     sync.Mutex
	siteID string
}

// NewAmber creates an Amber source. Retries are bounded by RetryMax so a
// failing poll never outlives the poll interval.
func NewAmber(opts AmberOptions, logger *slog.Logger) *Amber {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAmberURL
	}
	if opts.PriceCeiling <= 0 {
		opts.PriceCeiling = 50
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = logger

	return &Amber{
		opts:   opts,
		client: client,
		logger: logger,
		siteID: opts.SiteID,
	}
}

// Name identifies the source in logs, metrics and events.
func (a *Amber) Name() string {
	return "amber"
}

// Fetch returns one reading per known channel in the current interval.
func (a *Amber) Fetch(ctx context.Context) ([]Reading, error) {
	site, err := a.site(ctx)
	if err != nil {
		return nil, err
	}

	var intervals []amberInterval
	if err := a.get(ctx, "/sites/"+site+"/prices/current", &intervals); err != nil {
		return nil, err
	}

	readings := make([]Reading, 0, len(intervals))
	for _, iv := range intervals {
		row, ok := amberChannelRows[iv.ChannelType]
		if !ok {
			a.logger.Debug("Ignoring unknown Amber channel", "channel", iv.ChannelType)
			continue
		}
		category, err := price.ParseDescriptor(iv.Descriptor)
		if err != nil {
			a.logger.Warn("Unrecognized Amber descriptor", "channel", iv.ChannelType, "descriptor", iv.Descriptor)
		}
		readings = append(readings, Reading{
			Row:      row,
			Name:     iv.ChannelType,
			Category: category,
			Percent:  a.percent(iv),
		})
	}
	if len(readings) == 0 {
		return nil, errors.New("amber returned no usable intervals")
	}
	return readings, nil
}

// percent scales the interval price against the ceiling. Feed-in prices are
// negative when the site is paid, so their magnitude is shown.
func (a *Amber) percent(iv amberInterval) int {
	perKwh := iv.PerKwh
	if iv.ChannelType == "feedIn" {
		perKwh = math.Abs(perKwh)
	}
	return indicator.ClampPercent(int(perKwh * 100 / a.opts.PriceCeiling))
}

func (a *Amber) site(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.siteID != "" {
		return a.siteID, nil
	}

	var sites []amberSite
	if err := a.get(ctx, "/sites", &sites); err != nil {
		return "", fmt.Errorf("failed to list sites: %w", err)
	}
	for _, s := range sites {
		if s.Status == "" || s.Status == "active" {
			a.siteID = s.ID
			a.logger.Info("Using Amber site", "site_id", s.ID, "nmi", s.NMI)
			return s.ID, nil
		}
	}
	return "", errors.New("no active Amber site on this account")
}

func (a *Amber) get(ctx context.Context, path string, out any) error {
	url := strings.TrimRight(a.opts.BaseURL, "/") + path
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.opts.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
