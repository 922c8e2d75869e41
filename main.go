package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/The-Bear-Den/power-indicator/cmd"
	"github.com/The-Bear-Den/power-indicator/internal/api"
	"github.com/The-Bear-Den/power-indicator/internal/config"
	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/led"
	"github.com/The-Bear-Den/power-indicator/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Matrix settings
	MatrixWidth          int `help:"LEDs per row" default:"7" toml:"matrix.width" env:"MATRIX_WIDTH"`
	MatrixHeight         int `help:"Rows including the status row" default:"7" toml:"matrix.height" env:"MATRIX_HEIGHT"`
	MatrixStatusSegments int `help:"Status segments on row 0" default:"2" toml:"matrix.status_segments" env:"MATRIX_STATUS_SEGMENTS"`
	StatusDataSegment    int `help:"Status segment that reports price data health" default:"1" toml:"status.data_segment" env:"STATUS_DATA_SEGMENT"`

	// LED settings
	LEDDriver          string `help:"LED driver (auto, spi, ws281x, noop)" default:"auto" toml:"led.driver" env:"LED_DRIVER"`
	LEDSPIPort         string `help:"SPI port name, empty for the first one" default:"" toml:"led.spi_port" env:"LED_SPI_PORT"`
	LEDSPIFreqKHz      int    `help:"SPI clock in kHz" default:"2400" toml:"led.spi_freq_khz" env:"LED_SPI_FREQ_KHZ"`
	LEDGPIOPin         int    `help:"BCM data pin for ws281x" default:"18" toml:"led.gpio_pin" env:"LED_GPIO_PIN"`
	LEDDMA             int    `help:"DMA channel for ws281x" default:"10" toml:"led.dma" env:"LED_DMA"`
	LEDBoardLED        string `help:"On-board LED mirroring status health, empty to disable" default:"ACT" toml:"led.board_led" env:"LED_BOARD_LED"`
	LEDRefreshInterval string `help:"Retransmit the frame this often, 0 to disable" default:"0" toml:"led.refresh_interval" env:"LED_REFRESH_INTERVAL"`

	// Source settings
	SourceKind     string `help:"Price source (amber, file, mqtt, none)" default:"amber" toml:"source.kind" env:"SOURCE_KIND"`
	SourceInterval string `help:"Poll interval for amber and file sources" default:"30s" toml:"source.interval" env:"SOURCE_INTERVAL"`
	SourceFile     string `help:"Energy rows JSON file for the file source" default:"rows.json" toml:"source.file" env:"SOURCE_FILE"`

	// Amber settings
	AmberBaseURL      string `help:"Amber API base URL" default:"https://api.amber.com.au/v1" toml:"amber.base_url" env:"AMBER_BASE_URL"`
	AmberAPIKey       string `help:"Amber API key" default:"" toml:"amber.api_key" env:"AMBER_API_KEY"`
	AmberSiteID       string `help:"Amber site, empty for the first active site" default:"" toml:"amber.site_id" env:"AMBER_SITE_ID"`
	AmberPriceCeiling int    `help:"Price in c/kWh that fills a row" default:"50" toml:"amber.price_ceiling" env:"AMBER_PRICE_CEILING"`
	AmberRetryMax     int    `help:"HTTP retries per poll" default:"2" toml:"amber.retry_max" env:"AMBER_RETRY_MAX"`

	// MQTT settings
	MQTTBroker   string `help:"MQTT broker URL" default:"" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MQTTClientID string `help:"MQTT client ID" default:"power-indicator" toml:"mqtt.client_id" env:"MQTT_CLIENT_ID"`
	MQTTUsername string `help:"MQTT username" default:"" toml:"mqtt.username" env:"MQTT_USERNAME"`
	MQTTPassword string `help:"MQTT password" default:"" toml:"mqtt.password" env:"MQTT_PASSWORD"`
	MQTTTopic    string `help:"Topic carrying energy rows" default:"home/energy/rows" toml:"mqtt.topic" env:"MQTT_TOPIC"`

	// Network settings
	NetworkEnabled      bool   `help:"Probe network reachability on segment 0" default:"true" toml:"network.enabled" env:"NETWORK_ENABLED"`
	NetworkProbeAddress string `help:"TCP address probed for reachability" default:"1.1.1.1:53" toml:"network.probe_address" env:"NETWORK_PROBE_ADDRESS"`
	NetworkInterval     string `help:"Reachability probe interval" default:"15s" toml:"network.interval" env:"NETWORK_INTERVAL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingIndicator string `help:"Indicator engine logging level" default:"info" toml:"logging.indicator" env:"LOGGING_INDICATOR"`
	LoggingLED       string `help:"LED driver logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingSource    string `help:"Price source logging level" default:"info" toml:"logging.source" env:"LOGGING_SOURCE"`
	LoggingNetwork   string `help:"Network monitor logging level" default:"info" toml:"logging.network" env:"LOGGING_NETWORK"`
	LoggingMQTT      string `help:"MQTT logging level" default:"info" toml:"logging.mqtt" env:"LOGGING_MQTT"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func (o *Options) layout() indicator.Layout {
	return indicator.Layout{Width: o.MatrixWidth, Height: o.MatrixHeight, Segments: o.MatrixStatusSegments}
}

func (o *Options) ledOptions() led.Options {
	return led.Options{
		Kind:       o.LEDDriver,
		PixelCount: o.layout().PixelCount(),
		SPIPort:    o.LEDSPIPort,
		SPIFreqKHz: o.LEDSPIFreqKHz,
		GPIOPin:    o.LEDGPIOPin,
		DMA:        o.LEDDMA,
	}
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"indicator":  o.LoggingIndicator,
			"controller": o.LoggingIndicator,
			"led":        o.LoggingLED,
			"source":     o.LoggingSource,
			"network":    o.LoggingNetwork,
			"mqtt":       o.LoggingMQTT,
			"api":        o.LoggingAPI,
		},
	}
}

// parseDuration reads a duration option and names it in the error.
func parseDuration(name, value string) (time.Duration, error) {
	d, err := config.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, value, err)
	}
	return d, nil
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEvent(entry))
		})

		var current atomic.Pointer[service]

		hooks.OnStart(func() {
			svc, err := newService(opts, eventBus, logger)
			if err != nil {
				logger.Error("Failed to start indicator", "error", err)
				os.Exit(1)
			}
			current.Store(svc)
			if err := svc.run(opts.Port); err != nil {
				logger.Error("Failed to start HTTP server", "error", err)
				svc.stop()
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if svc := current.Load(); svc != nil {
				svc.stop()
			}
		})
	})

	with := cmd.Runner(func(run func(*cobra.Command, []string, cmd.Settings)) func(*cobra.Command, []string) {
		return humacli.WithOptions(func(c *cobra.Command, args []string, opts *Options) {
			run(c, args, cmd.Settings{
				Layout: opts.layout(),
				LED:    opts.ledOptions(),
				Logger: logging.GetLogger("led"),
			})
		})
	})

	cli.Root().Use = "power-indicator"
	cli.Root().Short = "Electricity price and link health on an LED matrix"
	cli.Root().AddCommand(cmd.CreateAddressCmd(with))
	cli.Root().AddCommand(cmd.CreatePatternCmd(with))
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}
