package logging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// SyslogIdentifier tags every journal entry. Use journalctl -t to filter.
const SyslogIdentifier = "power-indicator"

type journalSender func(message string, priority journal.Priority, vars map[string]string) error

// JournalHandler writes records to the systemd journal as structured
// fields. Attribute keys become upper case field names; groups are joined
// with underscores.
type JournalHandler struct {
	level  slog.Leveler
	prefix string
	fields map[string]string
	send   journalSender
}

// NewJournalHandler creates a handler that sends to the local journal.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{
		level:  level,
		fields: map[string]string{"SYSLOG_IDENTIFIER": SyslogIdentifier},
		send:   journal.Send,
	}
}

func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := maps.Clone(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		journalFields(fields, h.prefix, a)
		return true
	})

	if err := h.send(r.Message, journalPriority(r.Level), fields); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		return err
	}
	return nil
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = maps.Clone(h.fields)
	for _, a := range attrs {
		journalFields(next.fields, h.prefix, a)
	}
	return &next
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "_"
	return &next
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	}
	return journal.PriDebug
}

// journalFields flattens a into fields under prefix. Journal field names
// may not contain dashes.
func journalFields(fields map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		next := prefix
		if a.Key != "" {
			next += a.Key + "_"
		}
		for _, child := range a.Value.Group() {
			journalFields(fields, next, child)
		}
		return
	}

	key := strings.ToUpper(strings.ReplaceAll(prefix+a.Key, "-", "_"))
	if a.Value.Kind() == slog.KindTime {
		fields[key] = a.Value.Time().Format(time.RFC3339Nano)
		return
	}
	fields[key] = a.Value.String()
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
