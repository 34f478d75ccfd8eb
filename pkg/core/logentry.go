package core

import (
	"log/slog"
	"time"
)

// Severity ranks a log entry.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// SeverityFromLevel maps an slog level onto the nearest severity.
func SeverityFromLevel(l slog.Level) Severity {
	switch {
	case l >= slog.LevelError:
		return SeverityError
	case l >= slog.LevelWarn:
		return SeverityWarn
	case l >= slog.LevelInfo:
		return SeverityInfo
	default:
		return SeverityDebug
	}
}

// Well-known source tags.
const (
	SourceConsole  = "console"
	SourceOperator = "operator"
	SourceServer   = "server"
	SourceWorld    = "world"
)

// LogEntry is a single line shown in the console log view. Entries are
// never modified after creation.
type LogEntry struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}
