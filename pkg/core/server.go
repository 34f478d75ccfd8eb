package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFatal marks a server condition the console cannot continue from.
var ErrFatal = errors.New("fatal server condition")

// Event is something the server reports while ticking.
type Event struct {
	Time     time.Time
	Severity Severity
	Source   string
	Message  string
}

// CommandResult is the server's answer to a forwarded operator command.
type CommandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Server is the control surface the console drives.
type Server interface {
	// Tick advances the simulation by dt and returns the events it produced.
	// A non-nil error is fatal and begins console shutdown.
	Tick(dt time.Duration) ([]Event, error)

	// HandleCommand executes an operator command that the console does not
	// handle itself. It is called synchronously from the console loop.
	HandleCommand(raw string) CommandResult

	// SaveAndShutdown persists world state and stops the server.
	SaveAndShutdown() error
}

// StatusReporter is implemented by servers that can describe themselves
// for the status line.
type StatusReporter interface {
	Status() ServerStatus
}

// CommandLister is implemented by servers that can list the commands they
// accept, for the console's help output.
type CommandLister interface {
	Commands() []string
}

// ServerStatus is a point-in-time snapshot of server health.
type ServerStatus struct {
	Ticks     uint64        `json:"ticks"`
	TPS       float64       `json:"tps"`
	Uptime    time.Duration `json:"uptime"`
	Players   int           `json:"players"`
	Entities  int           `json:"entities"`
	WorldTime string        `json:"world_time"`
}

// ServerConfig is the fully-formed startup configuration of a server.
type ServerConfig struct {
	ListenAddr string
	Seed       int64
	SaveFile   string
	Autosave   time.Duration
}

// ParseListenAddr splits an address of the form network:address.
// Format: unix:/path/to.sock or tcp:host:port
func ParseListenAddr(s string) (network, address string, err error) {
	network, address, ok := strings.Cut(s, ":")
	if !ok || address == "" {
		return "", "", fmt.Errorf("invalid listen address %q: expected network:address", s)
	}
	switch network {
	case "unix", "tcp", "tcp4", "tcp6":
		return network, address, nil
	default:
		return "", "", fmt.Errorf("invalid listen address %q: unsupported network %q", s, network)
	}
}
