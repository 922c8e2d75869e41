package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(PriceUpdatedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ConnectivityChangedEvent:
		event.Publish(b.dispatcher, e)
	case PriceUpdatedEvent:
		event.Publish(b.dispatcher, e)
	case SourceErrorEvent:
		event.Publish(b.dispatcher, e)
	case IndicatorRenderedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type selects which events it receives.
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e ConnectivityChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ConnectivityChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PriceUpdatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SourceErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorRenderedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Unrecognized handler types get a no-op unsubscribe
		return func() {}
	}
}
