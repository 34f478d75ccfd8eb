package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/journal"

	"github.com/modoterra/worldconsole/pkg/console/logring"
	"github.com/modoterra/worldconsole/pkg/console/logsink"
	"github.com/modoterra/worldconsole/pkg/core"
)

func TestFileUsesRotationLimits(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "console.log")
	set, err := New(logsink.New(4), Options{File: file, MaxSizeMB: 3, MaxFiles: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer set.Close()
	if set.file.Filename != file || set.file.MaxSize != 3 || set.file.MaxBackups != 2 {
		t.Errorf("rotation = %+v", set.file)
	}
	if _, err := os.Stat(filepath.Dir(file)); err != nil {
		t.Errorf("log dir not created: %v", err)
	}
}

func TestFileInUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(logsink.New(4), Options{File: filepath.Join(blocker, "console.log"), MaxSizeMB: 1}); err == nil {
		t.Error("expected error for log file under a regular file")
	}
}

func TestFanout(t *testing.T) {
	var info, errOnly bytes.Buffer
	h := NewFanout(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewTextHandler(&errOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if len(h) != 2 {
		t.Fatalf("nil handler kept: %d", len(h))
	}
	logger := slog.New(h).With("tick", 7).WithGroup("save")

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled")
	}
	logger.Info("autosave", "file", "world.yaml")
	logger.Error("save failed", "err", "disk full")

	if !strings.Contains(info.String(), "autosave") || !strings.Contains(info.String(), "save failed") {
		t.Errorf("info handler missed records:\n%s", info.String())
	}
	if !strings.Contains(info.String(), "tick=7 save.file=world.yaml") {
		t.Errorf("attrs not passed through:\n%s", info.String())
	}
	if strings.Contains(errOnly.String(), "autosave") || !strings.Contains(errOnly.String(), "save failed") {
		t.Errorf("error handler level not honoured:\n%s", errOnly.String())
	}
}

type sentEntry struct {
	msg  string
	pri  journal.Priority
	vars map[string]string
}

func TestJournalHandler(t *testing.T) {
	var sent []sentEntry
	h := newJournalHandler(slog.LevelInfo, func(msg string, pri journal.Priority, vars map[string]string) error {
		sent = append(sent, sentEntry{msg, pri, vars})
		return nil
	})
	logger := slog.New(h).With("source", "world")

	logger.Debug("hidden")
	logger.Warn("player kicked", "player-name", "ada", "message", "afk")
	logger.WithGroup("net").Error("listener died", "addr", "127.0.0.1:14004")

	if len(sent) != 2 {
		t.Fatalf("sent %d entries", len(sent))
	}
	first := sent[0]
	if first.msg != "player kicked" || first.pri != journal.PriWarning {
		t.Errorf("first = %+v", first)
	}
	wantVars := map[string]string{
		"SYSLOG_IDENTIFIER": Identifier,
		"SOURCE":            "world",
		"PLAYER_NAME":       "ada",
		"ATTR_MESSAGE":      "afk",
	}
	for k, v := range wantVars {
		if first.vars[k] != v {
			t.Errorf("vars[%s] = %q, want %q", k, first.vars[k], v)
		}
	}
	if sent[1].pri != journal.PriErr || sent[1].vars["NET_ADDR"] != "127.0.0.1:14004" {
		t.Errorf("second = %+v", sent[1])
	}
}

func TestFieldName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"source", "SOURCE"},
		{"player.name", "PLAYER_NAME"},
		{"_private", "PRIVATE"},
		{"9lives", "LIVES"},
		{"__", ""},
		{"priority", "ATTR_PRIORITY"},
	}
	for _, tt := range tests {
		if got := fieldName(tt.in); got != tt.want {
			t.Errorf("fieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetLogger(t *testing.T) {
	sink := logsink.New(16)
	file := filepath.Join(t.TempDir(), "console.log")
	set, err := New(sink, Options{Level: slog.LevelInfo, File: file, MaxSizeMB: 1, MaxFiles: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set.Logger(core.SourceWorld).Info("dawn breaks", "day", 2)
	if err := set.Close(); err != nil {
		t.Fatal(err)
	}

	r := logring.New(4)
	sink.DrainInto(r)
	if r.Len() != 1 || r.At(0).Source != core.SourceWorld || r.At(0).Message != "dawn breaks day=2" {
		t.Errorf("sink entries = %+v", r.Entries())
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `msg="dawn breaks" source=world day=2`) {
		t.Errorf("file content = %q", raw)
	}
}
