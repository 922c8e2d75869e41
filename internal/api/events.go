package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/The-Bear-Den/power-indicator/internal/events"
)

// registerSSERoutes registers the indicator event stream.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of renders, link changes, price updates and source errors. Sends the current segment states first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"indicator-rendered":   events.IndicatorRenderedEvent{},
		"connectivity-changed": events.ConnectivityChangedEvent{},
		"price-updated":        events.PriceUpdatedEvent{},
		"source-error":         events.SourceErrorEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribers := []func(){
			events.Forward[events.IndicatorRenderedEvent](s.eventBus, eventCh, "events"),
			events.Forward[events.ConnectivityChangedEvent](s.eventBus, eventCh, "events"),
			events.Forward[events.PriceUpdatedEvent](s.eventBus, eventCh, "events"),
			events.Forward[events.SourceErrorEvent](s.eventBus, eventCh, "events"),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if s.options.Indicator != nil {
			for _, seg := range s.options.Indicator.Segments() {
				if err := send.Data(events.IndicatorRenderedEvent{
					Target:    "segment",
					Index:     seg.Segment,
					Color:     seg.Color,
					State:     seg.State,
					Timestamp: seg.Since.Format(timeFormat),
				}); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
