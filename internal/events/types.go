package events

// Event type constants for kelindar/event.
const (
	TypeConnectivityChanged uint32 = iota + 1
	TypePriceUpdated
	TypeSourceError
	TypeIndicatorRendered
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Link states reported by connectivity collaborators.
const (
	LinkConnecting = "connecting"
	LinkUp         = "up"
	LinkDown       = "down"
)

// ConnectivityChangedEvent is published by the network monitor and the
// messaging transport whenever their link state changes.
type ConnectivityChangedEvent struct {
	Segment   int    `json:"segment" example:"0" doc:"Status segment owned by the link"`
	Link      string `json:"link" example:"network" doc:"Link name"`
	State     string `json:"state" example:"up" enum:"connecting,up,down" doc:"Link state"`
	Reason    string `json:"reason,omitempty" doc:"Error text when the link is down"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectivityChangedEvent.
func (e ConnectivityChangedEvent) Type() uint32 { return TypeConnectivityChanged }

// Healthy reports whether the link is up.
func (e ConnectivityChangedEvent) Healthy() bool { return e.State == LinkUp }

// Reading is one data row value as delivered by a price source.
type Reading struct {
	Row        int    `json:"row" example:"1" doc:"Data row, 1-based"`
	Name       string `json:"name,omitempty" example:"general" doc:"Reading name"`
	Category   int    `json:"category" example:"3" doc:"Price tier ordinal, -1 when the descriptor was not recognized"`
	Descriptor string `json:"descriptor" example:"low" doc:"Price tier descriptor"`
	Percent    int    `json:"percent" example:"42" doc:"Row fill percentage"`
}

// PriceUpdatedEvent carries every row reading from one poll or message.
type PriceUpdatedEvent struct {
	Source    string    `json:"source" example:"amber" doc:"Source that produced the readings"`
	Readings  []Reading `json:"readings" doc:"Row readings"`
	Timestamp string    `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PriceUpdatedEvent.
func (e PriceUpdatedEvent) Type() uint32 { return TypePriceUpdated }

// SourceErrorEvent is published when a price source poll or payload fails.
type SourceErrorEvent struct {
	Source    string `json:"source" example:"amber" doc:"Source name"`
	Error     string `json:"error" doc:"Error text"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SourceErrorEvent.
func (e SourceErrorEvent) Type() uint32 { return TypeSourceError }

// IndicatorRenderedEvent is published by the controller after each render attempt.
type IndicatorRenderedEvent struct {
	Target    string `json:"target" example:"row" enum:"row,segment" doc:"What was rendered"`
	Index     int    `json:"index" example:"1" doc:"Row or segment index"`
	Color     string `json:"color" example:"green" doc:"Palette color"`
	Percent   int    `json:"percent,omitempty" example:"50" doc:"Row fill percentage"`
	State     string `json:"state,omitempty" example:"healthy" doc:"Segment state"`
	Error     string `json:"error,omitempty" doc:"Render or transmission error"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for IndicatorRenderedEvent.
func (e IndicatorRenderedEvent) Type() uint32 { return TypeIndicatorRendered }

// LogEntryEvent mirrors a buffered log line for streaming clients.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2026-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" enum:"debug,info,warn,error" doc:"Log level"`
	Module     string         `json:"module" example:"controller" doc:"Emitting module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
