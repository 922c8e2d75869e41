package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/The-Bear-Den/power-indicator/internal/api"
	"github.com/The-Bear-Den/power-indicator/internal/controller"
	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/led"
	"github.com/The-Bear-Den/power-indicator/internal/logging"
	"github.com/The-Bear-Den/power-indicator/internal/metrics/exporters"
	"github.com/The-Bear-Den/power-indicator/internal/network"
	"github.com/The-Bear-Den/power-indicator/internal/poller"
	"github.com/The-Bear-Den/power-indicator/internal/source"
	"github.com/The-Bear-Den/power-indicator/internal/transport"
)

// Source kinds.
const (
	sourceAmber = "amber"
	sourceFile  = "file"
	sourceMQTT  = "mqtt"
	sourceNone  = "none"
)

// Status segment owners.
const (
	networkSegment = 0
	linkSegment    = 1
)

// service owns every long-running component of the indicator.
type service struct {
	logger   *slog.Logger
	eventBus *events.Bus

	driver  led.Driver
	engine  *indicator.Engine
	ctrl    *controller.Controller
	mirror  *led.HealthMirror
	server  *api.Server
	refresh time.Duration

	runners []func(context.Context)
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// newService builds the component graph. Nothing runs until run is called
// except the boot clear, which blanks whatever the strip showed before.
func newService(opts *Options, eventBus *events.Bus, logger *slog.Logger) (*service, error) {
	layout := opts.layout()
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	refresh, err := parseDuration("led.refresh_interval", opts.LEDRefreshInterval)
	if err != nil {
		return nil, err
	}

	driver, err := led.New(opts.ledOptions(), logging.GetLogger("led"))
	if err != nil {
		return nil, fmt.Errorf("open LED driver: %w", err)
	}

	s := &service{
		logger:   logger,
		eventBus: eventBus,
		driver:   driver,
		refresh:  refresh,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.engine, err = indicator.New(layout, driver, logging.GetLogger("indicator"))
	if err != nil {
		s.cancel()
		driver.Close()
		return nil, err
	}
	if err := s.engine.Clear(); err != nil {
		logger.Warn("Boot clear failed", "error", err)
	}

	s.ctrl = controller.New(s.engine, eventBus, controller.Options{
		Links:       segmentLinks(layout.Segments, opts.SourceKind),
		DataSegment: opts.StatusDataSegment,
	}, logging.GetLogger("controller"))

	if err := s.addCollaborators(opts); err != nil {
		s.cancel()
		driver.Close()
		return nil, err
	}

	if opts.LEDBoardLED != "" {
		if board := led.NewBoardLED(opts.LEDBoardLED); board.Available() {
			s.mirror = led.NewHealthMirror(board, eventBus, layout.Segments, logging.GetLogger("led"))
		} else {
			logger.Debug("Board LED not present", "name", opts.LEDBoardLED)
		}
	}

	s.server = api.NewServer(&api.Options{
		AuthUsername:      opts.AuthUsername,
		AuthPassword:      opts.AuthPassword,
		Matrix:            s.engine,
		Indicator:         s.ctrl,
		EventBus:          eventBus,
		PrometheusHandler: exporters.HTTPHandler(),
	})
	return s, nil
}

// segmentLinks names the owner of every status segment.
func segmentLinks(segments int, sourceKind string) []string {
	links := make([]string, segments)
	for i := range links {
		links[i] = fmt.Sprintf("segment-%d", i)
	}
	if segments > networkSegment {
		links[networkSegment] = "network"
	}
	if segments > linkSegment {
		links[linkSegment] = "data"
		if sourceKind == sourceMQTT {
			links[linkSegment] = "mqtt"
		}
	}
	return links
}

func (s *service) addCollaborators(opts *Options) error {
	if opts.NetworkEnabled {
		interval, err := parseDuration("network.interval", opts.NetworkInterval)
		if err != nil {
			return err
		}
		mon := network.NewMonitor(s.eventBus, network.Options{
			Segment:  networkSegment,
			Address:  opts.NetworkProbeAddress,
			Interval: interval,
		}, logging.GetLogger("network"))
		s.runners = append(s.runners, mon.Run)
	}

	interval, err := parseDuration("source.interval", opts.SourceInterval)
	if err != nil {
		return err
	}
	sourceLogger := logging.GetLogger("source")

	switch opts.SourceKind {
	case sourceAmber:
		if opts.AmberAPIKey == "" {
			return errors.New("amber.api_key is required for the amber source")
		}
		amber := source.NewAmber(source.AmberOptions{
			BaseURL:      opts.AmberBaseURL,
			APIKey:       opts.AmberAPIKey,
			SiteID:       opts.AmberSiteID,
			PriceCeiling: float64(opts.AmberPriceCeiling),
			RetryMax:     opts.AmberRetryMax,
		}, sourceLogger)
		p := poller.New(amber, s.eventBus, poller.Options{Interval: interval}, sourceLogger)
		s.runners = append(s.runners, p.Run)

	case sourceFile:
		file := source.NewFile(opts.SourceFile, sourceLogger)
		p := poller.New(file, s.eventBus, poller.Options{Interval: interval}, sourceLogger)
		s.runners = append(s.runners, p.Run, func(ctx context.Context) {
			if err := source.Watch(ctx, file.Path(), 0, p.Trigger, sourceLogger); err != nil {
				sourceLogger.Warn("Rows file watch unavailable, polling only", "path", file.Path(), "error", err)
			}
		})

	case sourceMQTT:
		link, err := transport.NewMQTT(s.eventBus, transport.Options{
			Broker:   opts.MQTTBroker,
			ClientID: opts.MQTTClientID,
			Username: opts.MQTTUsername,
			Password: opts.MQTTPassword,
			Topic:    opts.MQTTTopic,
			Segment:  linkSegment,
		}, logging.GetLogger("mqtt"))
		if err != nil {
			return err
		}
		s.runners = append(s.runners, link.Run)

	case sourceNone:
		s.logger.Info("No price source configured, rows are set through the API only")

	default:
		return fmt.Errorf("unknown source kind %q", opts.SourceKind)
	}
	return nil
}

// run starts every component and serves HTTP until the server is stopped.
func (s *service) run(addr string) error {
	s.ctrl.Start()
	if s.mirror != nil {
		s.mirror.Start()
	}
	for _, r := range s.runners {
		s.wg.Add(1)
		go func(run func(context.Context)) {
			defer s.wg.Done()
			run(s.ctx)
		}(r)
	}
	if s.refresh > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.refreshLoop(s.ctx)
		}()
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		s.logger.Warn("Failed to notify systemd", "error", err)
	} else if sent {
		s.logger.Debug("Notified systemd ready")
	}

	s.logger.Info("Starting HTTP server", "port", addr)
	if err := s.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// refreshLoop retransmits the current frame so a glitched strip recovers.
func (s *service) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.engine.Flush(); err != nil {
				s.logger.Debug("Frame refresh failed", "error", err)
			}
		}
	}
}

// stop shuts components down in reverse order and turns the strip off.
func (s *service) stop() {
	s.once.Do(func() {
		s.logger.Info("Shutting down")
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

		if err := s.server.Stop(); err != nil {
			s.logger.Error("Error stopping HTTP server", "error", err)
		}
		s.cancel()
		s.wg.Wait()

		if s.mirror != nil {
			s.mirror.Stop()
		}
		s.ctrl.Stop()

		if err := s.driver.Close(); err != nil {
			s.logger.Warn("Error closing LED driver", "error", err)
		}
	})
}
