package console

import (
	"errors"
	"strings"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitStartup     = 1
	ExitSaveFailed  = 2
	ExitTerminal    = 3
	ExitServerFault = 4
)

// Result is the outcome of a console session.
type Result struct {
	Code   int
	Reason string

	SaveErr     error
	FaultErr    error
	TerminalErr error
}

// Err joins every error that affected the outcome.
func (r Result) Err() error {
	return errors.Join(r.SaveErr, r.FaultErr, r.TerminalErr)
}

// Diagnostic is the text to print once the terminal is restored. It is
// empty after a clean shutdown.
func (r Result) Diagnostic() string {
	var lines []string
	if r.SaveErr != nil {
		lines = append(lines, "world save failed: "+r.SaveErr.Error())
	}
	if r.FaultErr != nil {
		lines = append(lines, "server fault: "+r.FaultErr.Error())
	}
	if r.TerminalErr != nil {
		lines = append(lines, "terminal restore failed: "+r.TerminalErr.Error())
	}
	return strings.Join(lines, "\n")
}

// exitCode picks the code for r. Save failures win over server faults,
// which win over terminal failures.
func exitCode(r Result) int {
	switch {
	case r.SaveErr != nil:
		return ExitSaveFailed
	case r.FaultErr != nil:
		return ExitServerFault
	case r.TerminalErr != nil:
		return ExitTerminal
	default:
		return ExitOK
	}
}

// Shutdown stops the console: it closes input, saves the server, paints a
// final frame and restores the terminal. Only the first call does the work;
// every call returns the same Result. Run calls it when the loop ends, so
// other goroutines should use RequestShutdown while Run is active.
func (d *Driver) Shutdown() Result {
	d.once.Do(func() {
		d.result = d.shutdown()
	})
	return d.result
}

func (d *Driver) shutdown() (res Result) {
	d.RequestShutdown("shutdown requested")
	d.phase.advance(ShutdownFlushing)
	d.notify(StateShuttingDown)

	restored := false
	defer func() {
		if !restored {
			_ = d.term.Restore()
		}
	}()

	d.mu.Lock()
	res.Reason = d.reason
	d.mu.Unlock()
	d.logger.Info("shutting down", "reason", res.Reason)

	d.keys.Close()

	if err := d.server.SaveAndShutdown(); err != nil {
		res.SaveErr = err
		d.logger.Error("world save failed", "err", err)
	} else {
		d.logger.Info("world saved")
	}

	d.drain()
	d.paint()

	restored = true
	if err := d.term.Restore(); err != nil {
		res.TerminalErr = err
	}

	d.mu.Lock()
	res.FaultErr = d.fault
	d.mu.Unlock()
	res.Code = exitCode(res)

	d.phase.advance(ShutdownDone)
	d.notify(StateTerminated)
	return res
}
