package led

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// Board LED patterns.
const (
	PatternSolid = "solid"
	PatternBlink = "blink"
	PatternOff   = "off"
)

// BoardLED drives an on-board LED (e.g. the Raspberry Pi ACT LED) through
// the Linux sysfs LED class.
type BoardLED struct {
	root string
	name string
}

// NewBoardLED returns a handle for /sys/class/leds/<name>.
func NewBoardLED(name string) *BoardLED {
	return &BoardLED{root: sysfsLEDPath, name: name}
}

// Available reports whether the LED exists on this board.
func (b *BoardLED) Available() bool {
	_, err := os.Stat(filepath.Join(b.root, b.name))
	return err == nil
}

// Set applies a pattern: solid on, heartbeat blink, or off.
func (b *BoardLED) Set(pattern string) error {
	ledPath := filepath.Join(b.root, b.name)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s", b.name, ledPath)
	}

	trigger, brightness := "none", "0"
	switch pattern {
	case PatternSolid:
		brightness = "1"
	case PatternBlink:
		trigger = "heartbeat"
	case PatternOff:
	default:
		return fmt.Errorf("unknown LED pattern %q", pattern)
	}

	if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte(trigger), 0644); err != nil {
		return fmt.Errorf("failed to set LED trigger: %w", err)
	}
	// The heartbeat trigger owns brightness while active.
	if trigger != "none" {
		return nil
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(brightness), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}
