// Package console drives a server from an interactive terminal. A single
// loop polls signals and keystrokes, ticks the server, moves log entries
// into the view and paints a frame; shutdown runs once, after the loop.
package console

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/modoterra/worldconsole/pkg/console/command"
	"github.com/modoterra/worldconsole/pkg/console/input"
	"github.com/modoterra/worldconsole/pkg/console/logring"
	"github.com/modoterra/worldconsole/pkg/console/logsink"
	"github.com/modoterra/worldconsole/pkg/console/render"
	"github.com/modoterra/worldconsole/pkg/console/sigwatch"
	"github.com/modoterra/worldconsole/pkg/core"
	"github.com/modoterra/worldconsole/pkg/procstat"
)

// Defaults.
const (
	DefaultTickRate    = time.Second / 30
	DefaultPollTimeout = 25 * time.Millisecond
	defaultWidth       = 80
	defaultHeight      = 24
)

// Screen paints layouts. Only the console loop calls it.
type Screen interface {
	Size() (width, height int)
	Paint(render.Layout)
}

// Terminal is a Screen whose original mode must be restored on exit.
type Terminal interface {
	Screen
	Restore() error
}

// KeySource delivers operator keystrokes.
type KeySource interface {
	Poll(timeout time.Duration) (input.KeyEvent, bool)
	Close()
}

// SignalSource reports pending process signals.
type SignalSource interface {
	Poll() (sigwatch.Kind, bool)
}

// Headless is a Terminal that shows nothing. Output goes through
// Options.Echo instead.
type Headless struct{}

func (Headless) Size() (int, int)    { return defaultWidth, defaultHeight }
func (Headless) Paint(render.Layout) {}
func (Headless) Restore() error      { return nil }

// Options configures a Driver. Zero values select defaults.
type Options struct {
	TickRate     time.Duration
	PollTimeout  time.Duration
	RingCapacity int

	// Signals is polled at the top of every iteration.
	Signals SignalSource

	// Echo, when set, receives every new log entry as a plain line.
	Echo io.Writer

	HideTimestamps bool

	// OnStateChange is called from the loop goroutine when the console
	// starts shutting down and when it terminates.
	OnStateChange func(State)

	// Logger reports the console's own activity. It defaults to a logger
	// writing into the sink.
	Logger *slog.Logger

	// Stats supplies process statistics for the status line.
	Stats func() procstat.Sample

	Now func() time.Time
}

// Driver is the console loop. Run it once.
type Driver struct {
	server core.Server
	sink   *logsink.Sink
	keys   KeySource
	term   Terminal
	opts   Options
	logger *slog.Logger

	ring       *logring.Ring
	scroll     logring.Scroll
	buf        input.Buffer
	dispatcher *command.Dispatcher
	lastTick   time.Time
	nextTick   time.Time

	phase  shutdownPhase
	once   sync.Once
	result Result

	mu     sync.Mutex
	reason string
	fault  error
}

// New creates a driver for server. Entries pushed to sink appear in the
// log view; keys feed the input line; term is painted every iteration and
// restored during shutdown.
func New(server core.Server, sink *logsink.Sink, keys KeySource, term Terminal, opts Options) *Driver {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(logsink.NewHandler(sink, core.SourceConsole, slog.LevelInfo))
	}
	if opts.Stats == nil {
		opts.Stats = procstat.NewSampler(os.Getpid(), time.Second).Get
	}
	if term == nil {
		term = Headless{}
	}

	d := &Driver{
		server: server,
		sink:   sink,
		keys:   keys,
		term:   term,
		opts:   opts,
		logger: opts.Logger,
		ring:   logring.New(opts.RingCapacity),
		scroll: logring.NewScroll(),
	}
	d.lastTick = opts.Now()
	d.nextTick = d.lastTick.Add(opts.TickRate)
	d.dispatcher = command.NewDispatcher(server, sink, d.clearLog)
	return d
}

// Phase returns the current shutdown state. It is safe to call from any
// goroutine.
func (d *Driver) Phase() ShutdownState {
	return d.phase.load()
}

// State returns the console state. It is safe to call from any goroutine.
func (d *Driver) State() State {
	return d.phase.load().State()
}

func (d *Driver) running() bool {
	return d.phase.load() == ShutdownRunning
}

// RequestShutdown asks the loop to stop. Only the first request counts; it
// reports whether this call was that request. Safe from any goroutine.
func (d *Driver) RequestShutdown(reason string) bool {
	if !d.phase.advance(ShutdownSignalReceived) {
		return false
	}
	d.mu.Lock()
	d.reason = reason
	d.mu.Unlock()
	return true
}

func (d *Driver) setFault(err error) {
	d.mu.Lock()
	if d.fault == nil {
		d.fault = err
	}
	d.mu.Unlock()
}

func (d *Driver) notify(s State) {
	if d.opts.OnStateChange != nil {
		d.opts.OnStateChange(s)
	}
}
