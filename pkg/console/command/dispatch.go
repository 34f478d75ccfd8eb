package command

import (
	"fmt"
	"time"

	"github.com/modoterra/worldconsole/pkg/core"
)

// Result is the outcome of dispatching a Command. The set of implementations
// is closed.
type Result interface {
	isResult()
}

// LocalEffect is a command the console handled itself.
type LocalEffect struct {
	Description string
}

// Forwarded carries the server's answer to a forwarded command.
type Forwarded struct {
	Result core.CommandResult
}

// Exit asks the console to shut down.
type Exit struct{}

func (LocalEffect) isResult() {}
func (Forwarded) isResult()   {}
func (Exit) isResult()        {}

// Handler executes forwarded commands.
type Handler interface {
	HandleCommand(raw string) core.CommandResult
}

// Pusher receives feedback entries.
type Pusher interface {
	Push(core.LogEntry)
}

var builtins = []string{
	"help          show this list",
	"clear         clear the log view",
	"quit | exit   save the world and exit",
}

// Dispatcher routes commands. It is used from the console loop only.
type Dispatcher struct {
	server Handler
	sink   Pusher
	clear  func()
	now    func() time.Time
}

// NewDispatcher creates a dispatcher forwarding to server and reporting to
// sink. clear is called for ClearLog.
func NewDispatcher(server Handler, sink Pusher, clear func()) *Dispatcher {
	if clear == nil {
		clear = func() {}
	}
	return &Dispatcher{server: server, sink: sink, clear: clear, now: time.Now}
}

// Dispatch runs cmd. Forwarded commands call the server synchronously.
func (d *Dispatcher) Dispatch(cmd Command) Result {
	switch c := cmd.(type) {
	case Empty:
		return LocalEffect{}
	case Help:
		d.push(core.SeverityInfo, core.SourceConsole, "console commands:")
		for _, line := range builtins {
			d.push(core.SeverityInfo, core.SourceConsole, "  "+line)
		}
		if l, ok := d.server.(core.CommandLister); ok {
			if cmds := l.Commands(); len(cmds) > 0 {
				d.push(core.SeverityInfo, core.SourceConsole, "server commands:")
				for _, line := range cmds {
					d.push(core.SeverityInfo, core.SourceConsole, "  "+line)
				}
			}
		}
		return LocalEffect{Description: "listed commands"}
	case ClearLog:
		d.clear()
		d.push(core.SeverityInfo, core.SourceConsole, "log cleared")
		return LocalEffect{Description: "log cleared"}
	case Quit:
		d.push(core.SeverityInfo, core.SourceConsole, "shutting down")
		return Exit{}
	case Forward:
		d.push(core.SeverityInfo, core.SourceOperator, "> "+c.Raw)
		res := d.server.HandleCommand(c.Raw)
		sev := core.SeverityInfo
		if !res.OK {
			sev = core.SeverityError
		}
		if res.Message != "" || !res.OK {
			d.push(sev, core.SourceServer, res.Message)
		}
		return Forwarded{Result: res}
	default:
		panic(fmt.Sprintf("command: unhandled command %T", cmd))
	}
}

func (d *Dispatcher) push(sev core.Severity, source, msg string) {
	d.sink.Push(core.LogEntry{
		Time:     d.now(),
		Severity: sev,
		Source:   source,
		Message:  msg,
	})
}
