// Package transport connects to the MQTT broker that delivers energy rows
// and reports the link on its status segment.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"

	"github.com/The-Bear-Den/power-indicator/internal/events"
	"github.com/The-Bear-Den/power-indicator/internal/metrics"
	"github.com/The-Bear-Den/power-indicator/internal/source"
)

const (
	DefaultTopic         = "home/energy/rows"
	DefaultClientID      = "power-indicator"
	defaultRetryInterval = 10 * time.Second
	linkName             = "mqtt"
	sourceName           = "mqtt"
)

// Options configures the MQTT link.
type Options struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	Topic         string
	Segment       int
	RetryInterval time.Duration
	Clock         clockwork.Clock
}

// MQTT owns the broker connection. Energy rows received on the topic are
// published as PriceUpdatedEvent.
type MQTT struct {
	opts   Options
	bus    *events.Bus
	logger *slog.Logger
	client mqtt.Client
}

// NewMQTT validates opts and prepares the client. It does not connect.
func NewMQTT(bus *events.Bus, opts Options, logger *slog.Logger) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	t := &MQTT{opts: opts, bus: bus, logger: logger}

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost)
	t.client = mqtt.NewClient(co)
	return t, nil
}

// Run connects, retrying on failure, and disconnects when ctx is done.
// Reconnects after an established session are handled by the client.
func (t *MQTT) Run(ctx context.Context) {
	t.publishLink(events.LinkConnecting, "")

	for {
		token := t.client.Connect()
		select {
		case <-ctx.Done():
			t.client.Disconnect(0)
			return
		case <-token.Done():
		}
		err := token.Error()
		if err == nil {
			break
		}
		t.logger.Warn("MQTT connect failed", "broker", t.opts.Broker, "error", err)
		t.publishLink(events.LinkDown, err.Error())

		select {
		case <-ctx.Done():
			return
		case <-t.opts.Clock.After(t.opts.RetryInterval):
			t.publishLink(events.LinkConnecting, "")
		}
	}

	<-ctx.Done()
	t.client.Disconnect(250)
	t.logger.Info("MQTT disconnected")
}

func (t *MQTT) onConnect(client mqtt.Client) {
	t.logger.Info("MQTT connected", "broker", t.opts.Broker, "topic", t.opts.Topic)
	token := client.Subscribe(t.opts.Topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		t.handlePayload(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		t.logger.Error("MQTT subscribe failed", "topic", t.opts.Topic, "error", token.Error())
		t.publishLink(events.LinkDown, token.Error().Error())
		return
	}
	t.publishLink(events.LinkUp, "")
}

// A lost session is reconnecting, not failed.
func (t *MQTT) onConnectionLost(_ mqtt.Client, err error) {
	t.logger.Warn("MQTT connection lost", "error", err)
	t.publishLink(events.LinkConnecting, err.Error())
}

func (t *MQTT) handlePayload(payload []byte) {
	readings, err := source.ParseRows(payload, t.logger)
	metrics.RecordMQTTMessage(err)
	now := t.opts.Clock.Now().Format(time.RFC3339)
	if err != nil {
		t.logger.Warn("Discarding energy rows message", "error", err)
		t.bus.Publish(events.SourceErrorEvent{
			Source:    sourceName,
			Error:     fmt.Sprintf("topic %s: %v", t.opts.Topic, err),
			Timestamp: now,
		})
		return
	}
	t.bus.Publish(events.PriceUpdatedEvent{
		Source:    sourceName,
		Readings:  source.Events(readings),
		Timestamp: now,
	})
}

func (t *MQTT) publishLink(state, reason string) {
	t.bus.Publish(events.ConnectivityChangedEvent{
		Segment:   t.opts.Segment,
		Link:      linkName,
		State:     state,
		Reason:    reason,
		Timestamp: t.opts.Clock.Now().Format(time.RFC3339),
	})
}
