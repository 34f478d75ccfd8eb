package console

import "sync/atomic"

// ShutdownState is the progress of shutdown. It only moves forward.
type ShutdownState uint32

const (
	ShutdownRunning ShutdownState = iota
	ShutdownSignalReceived
	ShutdownFlushing
	ShutdownDone
)

func (s ShutdownState) String() string {
	switch s {
	case ShutdownRunning:
		return "running"
	case ShutdownSignalReceived:
		return "signal received"
	case ShutdownFlushing:
		return "flushing"
	case ShutdownDone:
		return "done"
	default:
		return "unknown"
	}
}

// State is the console's externally visible state.
type State int

const (
	StateRunning State = iota
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// State derives the console state from a shutdown state.
func (s ShutdownState) State() State {
	switch s {
	case ShutdownRunning:
		return StateRunning
	case ShutdownDone:
		return StateTerminated
	default:
		return StateShuttingDown
	}
}

// shutdownPhase holds a ShutdownState that can only advance.
type shutdownPhase struct {
	v atomic.Uint32
}

func (p *shutdownPhase) load() ShutdownState {
	return ShutdownState(p.v.Load())
}

// advance moves to s and reports whether this call made the move. Moves to
// s or an earlier state are refused.
func (p *shutdownPhase) advance(s ShutdownState) bool {
	for {
		cur := p.v.Load()
		if ShutdownState(cur) >= s {
			return false
		}
		if p.v.CompareAndSwap(cur, uint32(s)) {
			return true
		}
	}
}
