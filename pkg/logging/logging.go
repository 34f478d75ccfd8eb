// Package logging builds the slog loggers of the console and world server.
// Every logger writes into the console's log sink and, when configured, to
// a rotating log file and the systemd journal.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/modoterra/worldconsole/pkg/console/logsink"
)

// Options selects the extra log destinations.
type Options struct {
	Level slog.Level

	// File enables the rotating log file when non-empty. It rotates at
	// MaxSizeMB and keeps MaxFiles old files; zero keeps all of them.
	File      string
	MaxSizeMB int
	MaxFiles  int

	// Journal sends records to journald when it is reachable.
	Journal bool
}

// Set hands out loggers that share destinations.
type Set struct {
	sink    *logsink.Sink
	level   slog.Level
	file    *lumberjack.Logger
	extra   []slog.Handler
	journal bool
}

// New opens the configured destinations. Close releases them.
func New(sink *logsink.Sink, opts Options) (*Set, error) {
	s := &Set{sink: sink, level: opts.Level}
	if opts.File != "" {
		// lumberjack opens the file on first write, so check the directory now.
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		w := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxFiles,
		}
		s.file = w
		s.extra = append(s.extra, slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level}))
	}
	if opts.Journal {
		if h := NewJournalHandler(opts.Level); h != nil {
			s.extra = append(s.extra, h)
			s.journal = true
		}
	}
	return s, nil
}

// Journal reports whether records also go to journald.
func (s *Set) Journal() bool {
	return s.journal
}

// Logger returns a logger whose entries carry the given source tag.
func (s *Set) Logger(source string) *slog.Logger {
	handlers := []slog.Handler{logsink.NewHandler(s.sink, source, s.level)}
	tag := []slog.Attr{slog.String(logsink.SourceKey, source)}
	for _, h := range s.extra {
		handlers = append(handlers, h.WithAttrs(tag))
	}
	return slog.New(NewFanout(handlers...))
}

// Close closes the log file, if any.
func (s *Set) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
