package core

import (
	"log/slog"
	"testing"
)

func TestParseListenAddr(t *testing.T) {
	tests := []struct {
		input       string
		wantNetwork string
		wantAddr    string
		wantError   bool
	}{
		{"unix:/tmp/world.sock", "unix", "/tmp/world.sock", false},
		{"tcp:127.0.0.1:14004", "tcp", "127.0.0.1:14004", false},
		{"tcp6:[::1]:14004", "tcp6", "[::1]:14004", false},
		{"tcp::14004", "tcp", ":14004", false},
		{"udp:127.0.0.1:1", "", "", true},
		{"/tmp/world.sock", "", "", true},
		{"unix:", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			network, addr, err := ParseListenAddr(tt.input)
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if network != tt.wantNetwork {
				t.Errorf("network: got %q, want %q", network, tt.wantNetwork)
			}
			if addr != tt.wantAddr {
				t.Errorf("address: got %q, want %q", addr, tt.wantAddr)
			}
		})
	}
}

func TestSeverityFromLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  Severity
	}{
		{slog.LevelDebug, SeverityDebug},
		{slog.LevelDebug + 2, SeverityDebug},
		{slog.LevelInfo, SeverityInfo},
		{slog.LevelWarn, SeverityWarn},
		{slog.LevelError, SeverityError},
		{slog.LevelError + 4, SeverityError},
	}
	for _, tt := range tests {
		if got := SeverityFromLevel(tt.level); got != tt.want {
			t.Errorf("SeverityFromLevel(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
