// Package logring holds the console's bounded log history and the scroll
// position of the view over it.
package logring

import "github.com/modoterra/worldconsole/pkg/core"

// DefaultCapacity is used when a ring is created with a non-positive capacity.
const DefaultCapacity = 1024

// Ring is a fixed-capacity FIFO of log entries. When full, pushing evicts
// the oldest entry. Ring is not safe for concurrent use.
type Ring struct {
	buf  []core.LogEntry
	head int // index of the oldest entry
	n    int
}

// New creates a ring holding at most capacity entries.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]core.LogEntry, capacity)}
}

// Push appends e and reports whether the oldest entry was evicted to make room.
func (r *Ring) Push(e core.LogEntry) (evicted bool) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = e
		r.n++
		return false
	}
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	return true
}

// Len returns the number of entries held.
func (r *Ring) Len() int { return r.n }

// Cap returns the maximum number of entries held.
func (r *Ring) Cap() int { return len(r.buf) }

// At returns the i-th entry, 0 being the oldest. It panics if i is out of range.
func (r *Ring) At(i int) core.LogEntry {
	if i < 0 || i >= r.n {
		panic("logring: index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Entries returns a copy of all entries, oldest first.
func (r *Ring) Entries() []core.LogEntry {
	out := make([]core.LogEntry, r.n)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Tail returns a copy of the newest n entries, oldest first.
func (r *Ring) Tail(n int) []core.LogEntry {
	if n > r.n {
		n = r.n
	}
	if n <= 0 {
		return nil
	}
	out := make([]core.LogEntry, n)
	for i := range out {
		out[i] = r.At(r.n - n + i)
	}
	return out
}

// Clear drops all entries.
func (r *Ring) Clear() {
	clear(r.buf)
	r.head = 0
	r.n = 0
}
