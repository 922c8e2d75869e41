package events

import (
	"github.com/kelindar/event"

	"github.com/The-Bear-Den/power-indicator/internal/metrics"
)

// Forward copies every T published on bus into ch until the returned
// function is called. A full ch drops the event and counts it against
// stream, so a slow SSE client never stalls publishers.
func Forward[T Event](bus *Bus, ch chan<- any, stream string) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			metrics.RecordStreamDrop(stream)
		}
	})
}
