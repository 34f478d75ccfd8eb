// Package sigwatch turns process signals into a flag the console loop polls.
package sigwatch

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Kind is the kind of signal observed.
type Kind uint32

const (
	None Kind = iota
	Interrupt
	Terminate
	Hangup
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Interrupt:
		return "interrupt"
	case Terminate:
		return "terminate"
	case Hangup:
		return "hangup"
	default:
		return "unknown"
	}
}

// KindOf maps an OS signal to a Kind.
func KindOf(sig os.Signal) Kind {
	switch sig {
	case os.Interrupt:
		return Interrupt
	case syscall.SIGTERM:
		return Terminate
	case syscall.SIGHUP:
		return Hangup
	default:
		return Terminate
	}
}

// Watcher records the latest signal in a single atomic slot. Signals that
// arrive between two polls coalesce into one observation.
type Watcher struct {
	flag atomic.Uint32
	ch   chan os.Signal
	stop chan struct{}
	once sync.Once
}

// New starts watching sigs, or SIGINT, SIGTERM and SIGHUP when none are given.
func New(sigs ...os.Signal) *Watcher {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
	}
	w := &Watcher{
		ch:   make(chan os.Signal, 1),
		stop: make(chan struct{}),
	}
	signal.Notify(w.ch, sigs...)
	go w.loop()
	return w
}

// NewManual returns a watcher not attached to OS signals. Notify drives it.
func NewManual() *Watcher {
	return &Watcher{stop: make(chan struct{})}
}

func (w *Watcher) loop() {
	for {
		select {
		case sig := <-w.ch:
			w.Notify(KindOf(sig))
		case <-w.stop:
			return
		}
	}
}

// Notify records k as if the corresponding signal had arrived.
func (w *Watcher) Notify(k Kind) {
	if k == None {
		return
	}
	w.flag.Store(uint32(k))
}

// Poll reports and clears the pending signal. It never blocks.
func (w *Watcher) Poll() (Kind, bool) {
	k := Kind(w.flag.Swap(uint32(None)))
	return k, k != None
}

// Stop unregisters the watcher. Pending state is kept for a final Poll.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		if w.ch != nil {
			signal.Stop(w.ch)
		}
		close(w.stop)
	})
}
