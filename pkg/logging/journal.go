package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// Identifier is the SYSLOG_IDENTIFIER of journal entries.
const Identifier = "worldconsole"

// JournalHandler sends records to the systemd journal with their attrs as
// journal fields.
type JournalHandler struct {
	level  slog.Leveler
	fields map[string]string
	group  string
	send   func(msg string, pri journal.Priority, vars map[string]string) error
}

// NewJournalHandler returns nil when the journal is not reachable.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	if !journal.Enabled() {
		return nil
	}
	return newJournalHandler(level, journal.Send)
}

func newJournalHandler(level slog.Leveler, send func(string, journal.Priority, map[string]string) error) *JournalHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &JournalHandler{
		level:  level,
		fields: map[string]string{"SYSLOG_IDENTIFIER": Identifier},
		send:   send,
	}
}

func (h *JournalHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	vars := make(map[string]string, len(h.fields)+r.NumAttrs())
	for k, v := range h.fields {
		vars[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addField(vars, h.group, a)
		return true
	})
	return h.send(r.Message, priority(r.Level), vars)
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.fields = make(map[string]string, len(h.fields)+len(attrs))
	for k, v := range h.fields {
		h2.fields[k] = v
	}
	for _, a := range attrs {
		addField(h2.fields, h.group, a)
	}
	return &h2
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = joinKey(h.group, name)
	return &h2
}

func priority(l slog.Level) journal.Priority {
	switch {
	case l >= slog.LevelError:
		return journal.PriErr
	case l >= slog.LevelWarn:
		return journal.PriWarning
	case l >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

func addField(vars map[string]string, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := joinKey(group, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addField(vars, key, ga)
		}
		return
	}
	if name := fieldName(key); name != "" {
		vars[name] = fmt.Sprint(a.Value.Any())
	}
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "_" + key
}

// fieldName turns an attr key into a valid journal field name: upper case
// letters, digits and underscores, not starting with an underscore or digit.
func fieldName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), "_0123456789")
	if name == "" {
		return ""
	}
	// Fields the journal sets itself are not accepted from clients.
	switch name {
	case "MESSAGE", "PRIORITY":
		return "ATTR_" + name
	}
	return name
}
