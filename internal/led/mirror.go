package led

import (
	"log/slog"
	"sync"

	"github.com/The-Bear-Den/power-indicator/internal/events"
)

// PatternSetter is satisfied by BoardLED.
type PatternSetter interface {
	Set(pattern string) error
}

// HealthMirror shows aggregate status health on a board LED: solid while
// every status segment is healthy, blinking otherwise.
type HealthMirror struct {
	led         PatternSetter
	eventBus    *events.Bus
	segments    int
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	states  map[int]string
	current string
}

// NewHealthMirror creates a mirror for a status row with the given number of segments.
func NewHealthMirror(led PatternSetter, eventBus *events.Bus, segments int, logger *slog.Logger) *HealthMirror {
	return &HealthMirror{
		led:      led,
		eventBus: eventBus,
		segments: segments,
		logger:   logger,
		states:   make(map[int]string),
	}
}

// Start blinks the LED until every segment reports healthy.
func (m *HealthMirror) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.IndicatorRenderedEvent) {
		if e.Target == "segment" {
			m.handleState(e.Index, e.State)
		}
	})
	m.mu.Lock()
	m.apply(PatternBlink)
	m.mu.Unlock()
	m.logger.Info("Board LED health mirror started")
}

// Stop unsubscribes and turns the LED off.
func (m *HealthMirror) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.mu.Lock()
	m.apply(PatternOff)
	m.mu.Unlock()
	m.logger.Info("Board LED health mirror stopped")
}

func (m *HealthMirror) handleState(segment int, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[segment] = state

	healthy := len(m.states) == m.segments
	for _, s := range m.states {
		if s != "healthy" {
			healthy = false
			break
		}
	}

	if healthy {
		m.apply(PatternSolid)
	} else {
		m.apply(PatternBlink)
	}
}

func (m *HealthMirror) apply(pattern string) {
	if pattern == m.current {
		return
	}
	if err := m.led.Set(pattern); err != nil {
		m.logger.Warn("Failed to set board LED", "pattern", pattern, "error", err)
		return
	}
	m.current = pattern
	m.logger.Debug("Board LED pattern set", "pattern", pattern)
}
