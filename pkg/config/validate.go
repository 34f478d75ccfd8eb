package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/modoterra/worldconsole/pkg/core"
)

// Validate checks the configuration for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}

	if c.Console.RingCapacity <= 0 {
		errs = append(errs, fmt.Errorf("console.ring_capacity must be positive, got %d", c.Console.RingCapacity))
	}
	if c.Console.SinkCapacity <= 0 {
		errs = append(errs, fmt.Errorf("console.sink_capacity must be positive, got %d", c.Console.SinkCapacity))
	}
	if c.Console.TickRate < time.Millisecond {
		errs = append(errs, fmt.Errorf("console.tick_rate must be at least 1ms, got %s", c.Console.TickRate))
	}
	if c.Console.PollTimeout <= 0 || c.Console.PollTimeout > time.Second {
		errs = append(errs, fmt.Errorf("console.poll_timeout must be in (0, 1s], got %s", c.Console.PollTimeout))
	}

	if _, _, err := core.ParseListenAddr(c.Server.Listen); err != nil {
		errs = append(errs, fmt.Errorf("server.listen: %w", err))
	}
	if c.Server.SaveFile == "" {
		errs = append(errs, fmt.Errorf("server.save_file is required"))
	}
	if c.Server.Autosave < 0 {
		errs = append(errs, fmt.Errorf("server.autosave must not be negative, got %s", c.Server.Autosave))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.File != "" {
		if c.Log.MaxSizeMB <= 0 {
			errs = append(errs, fmt.Errorf("log.max_size_mb must be positive, got %d", c.Log.MaxSizeMB))
		}
		if c.Log.MaxFiles < 0 {
			errs = append(errs, fmt.Errorf("log.max_files must not be negative, got %d", c.Log.MaxFiles))
		}
	}

	return errs
}

// ParseLevel maps debug, info, warn or error to an slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}
