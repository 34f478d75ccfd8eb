package input

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"
)

// DefaultQueue is the key queue length used by NewReader(0).
const DefaultQueue = 256

// Reader queues keystrokes from any producer for the console loop to poll.
type Reader struct {
	keys      chan KeyEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewReader creates a reader buffering up to queue keystrokes.
func NewReader(queue int) *Reader {
	if queue <= 0 {
		queue = DefaultQueue
	}
	return &Reader{
		keys: make(chan KeyEvent, queue),
		done: make(chan struct{}),
	}
}

// Feed queues ev without blocking. It reports false when the reader is
// closed or the queue is full; the keystroke is then dropped.
func (r *Reader) Feed(ev KeyEvent) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.keys <- ev:
		return true
	default:
		return false
	}
}

// Send queues ev, waiting for room until ctx is done or the reader closes.
func (r *Reader) Send(ctx context.Context, ev KeyEvent) error {
	select {
	case <-r.done:
		return io.ErrClosedPipe
	default:
	}
	select {
	case r.keys <- ev:
		return nil
	case <-r.done:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll waits at most timeout for a keystroke. A zero timeout only checks
// what is already queued. Poll returns false once the reader is closed.
func (r *Reader) Poll(timeout time.Duration) (KeyEvent, bool) {
	select {
	case <-r.done:
		return KeyEvent{}, false
	default:
	}
	if timeout <= 0 {
		select {
		case ev := <-r.keys:
			return ev, true
		default:
			return KeyEvent{}, false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-r.keys:
		return ev, true
	case <-r.done:
		return KeyEvent{}, false
	case <-t.C:
		return KeyEvent{}, false
	}
}

// Close stops accepting and delivering keystrokes. It is safe to call more
// than once.
func (r *Reader) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Closed reports whether Close has been called.
func (r *Reader) Closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// ReadLines feeds each line of src to r as a run of KeyChar events followed
// by KeyEnter. It returns when src is exhausted, ctx is done, or r closes.
func ReadLines(ctx context.Context, src io.Reader, r *Reader) error {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		for _, ev := range Chars(sc.Text()) {
			if err := r.Send(ctx, ev); err != nil {
				return err
			}
		}
		if err := r.Send(ctx, KeyEvent{Kind: KeyEnter}); err != nil {
			return err
		}
	}
	return sc.Err()
}
