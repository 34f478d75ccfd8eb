package console

import (
	"context"
	"fmt"

	"github.com/modoterra/worldconsole/pkg/console/command"
	"github.com/modoterra/worldconsole/pkg/console/input"
	"github.com/modoterra/worldconsole/pkg/console/logring"
	"github.com/modoterra/worldconsole/pkg/console/render"
	"github.com/modoterra/worldconsole/pkg/core"
)

// Run drives the server until a signal, Ctrl-C, the quit command, a fatal
// tick error or cancellation of ctx, then shuts down and returns the
// outcome. The caller exits the process with Result.Code. A panic in the
// loop still runs the shutdown sequence before it propagates.
func (d *Driver) Run(ctx context.Context) Result {
	defer func() {
		if r := recover(); r != nil {
			d.setFault(fmt.Errorf("%w: panic: %v", core.ErrFatal, r))
			d.RequestShutdown("panic")
			d.Shutdown()
			panic(r)
		}
	}()

	now := d.opts.Now()
	d.lastTick = now
	d.nextTick = now.Add(d.opts.TickRate)
	d.drain()
	d.paint()

	for d.step(ctx) {
	}
	return d.Shutdown()
}

// step runs one loop iteration and reports whether the console is still
// running afterwards.
func (d *Driver) step(ctx context.Context) bool {
	if d.opts.Signals != nil {
		if k, ok := d.opts.Signals.Poll(); ok {
			d.RequestShutdown("signal: " + k.String())
		}
	}
	if ctx.Err() != nil {
		d.RequestShutdown("context: " + ctx.Err().Error())
	}
	if !d.running() {
		return false
	}

	wait := min(d.opts.PollTimeout, d.nextTick.Sub(d.opts.Now()))
	ev, ok := d.keys.Poll(max(wait, 0))
	for ok {
		d.handleKey(ev)
		if !d.running() {
			break
		}
		ev, ok = d.keys.Poll(0)
	}

	if d.running() && !d.opts.Now().Before(d.nextTick) {
		d.tick()
	}

	d.drain()
	d.paint()
	return d.running()
}

func (d *Driver) tick() {
	now := d.opts.Now()
	dt := now.Sub(d.lastTick)
	d.lastTick = now
	d.nextTick = d.nextTick.Add(d.opts.TickRate)
	if d.nextTick.Before(now) {
		// Fell behind; skip the missed ticks rather than bursting.
		d.nextTick = now.Add(d.opts.TickRate)
	}

	events, err := d.server.Tick(dt)
	for _, ev := range events {
		if ev.Time.IsZero() {
			ev.Time = now
		}
		if ev.Source == "" {
			ev.Source = core.SourceServer
		}
		d.sink.PushEvent(ev)
	}
	if err != nil {
		d.setFault(err)
		d.logger.Error("server fault", "err", err)
		d.RequestShutdown("server fault")
	}
}

func (d *Driver) handleKey(ev input.KeyEvent) {
	rows := render.LogHeight(d.size().Height)
	switch ev.Kind {
	case input.KeyChar:
		d.buf.Insert(ev.Rune)
	case input.KeyBackspace:
		d.buf.Backspace()
	case input.KeyDelete:
		d.buf.Delete()
	case input.KeyLeft:
		d.buf.Left()
	case input.KeyRight:
		d.buf.Right()
	case input.KeyHome:
		d.buf.Home()
	case input.KeyEnd:
		d.buf.End()
		d.scroll.JumpToBottom()
	case input.KeyEscape:
		d.buf.Clear()
	case input.KeyUp:
		d.scroll.Up(1, d.ring.Len(), rows)
	case input.KeyDown:
		d.scroll.Down(1, d.ring.Len(), rows)
	case input.KeyPageUp:
		d.scroll.Up(max(rows, 1), d.ring.Len(), rows)
	case input.KeyPageDown:
		d.scroll.Down(max(rows, 1), d.ring.Len(), rows)
	case input.KeyCtrlC:
		d.RequestShutdown("ctrl+c")
	case input.KeyEnter:
		d.submit()
	}
}

func (d *Driver) submit() {
	cmd := command.Parse(d.buf.Submit())
	switch res := d.dispatcher.Dispatch(cmd).(type) {
	case command.Exit:
		d.RequestShutdown("quit command")
	case command.LocalEffect, command.Forwarded:
	default:
		panic(fmt.Sprintf("console: unhandled dispatch result %T", res))
	}
}

func (d *Driver) clearLog() {
	d.drain()
	d.ring.Clear()
	d.scroll = logring.NewScroll()
}

// drain moves queued entries into the ring and echoes them.
func (d *Driver) drain() {
	moved := d.sink.DrainInto(d.ring)
	if len(moved) == 0 {
		return
	}
	d.scroll.Appended(len(moved), d.ring.Len(), render.LogHeight(d.size().Height))
	if d.opts.Echo != nil {
		for _, e := range moved {
			fmt.Fprintln(d.opts.Echo, render.FormatEntry(e, d.opts.HideTimestamps))
		}
	}
}

func (d *Driver) size() render.Viewport {
	w, h := d.term.Size()
	if w <= 0 || h <= 0 {
		w, h = defaultWidth, defaultHeight
	}
	return render.Viewport{Width: w, Height: h, HideTimestamps: d.opts.HideTimestamps}
}

func (d *Driver) status() render.Status {
	st := render.Status{
		State:   d.State().String(),
		Dropped: d.sink.Dropped(),
	}
	if r, ok := d.server.(core.StatusReporter); ok {
		st.Server = r.Status()
	}
	st.RSSBytes = d.opts.Stats().RSSBytes
	return st
}

func (d *Driver) paint() {
	d.term.Paint(render.Render(d.ring, d.size(), d.scroll, d.buf, d.status()))
}
