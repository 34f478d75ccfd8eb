// Package logsink is the console's many-producer, single-consumer log queue.
// Producers never block: when the queue is full the oldest queued entry is
// dropped and counted.
package logsink

import (
	"sync"
	"sync/atomic"

	"github.com/modoterra/worldconsole/pkg/console/logring"
	"github.com/modoterra/worldconsole/pkg/core"
)

// DefaultCapacity bounds the queue between drains.
const DefaultCapacity = 4096

// Sink queues log entries until the console drains them into its ring.
type Sink struct {
	mu      sync.Mutex
	queue   *logring.Ring
	dropped atomic.Uint64
}

// New creates a sink that queues at most capacity entries between drains.
func New(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{queue: logring.New(capacity)}
}

// Push queues e. It is safe to call from any goroutine.
func (s *Sink) Push(e core.LogEntry) {
	s.mu.Lock()
	evicted := s.queue.Push(e)
	s.mu.Unlock()
	if evicted {
		s.dropped.Add(1)
	}
}

// PushEvent queues a server event.
func (s *Sink) PushEvent(ev core.Event) {
	s.Push(core.LogEntry{
		Time:     ev.Time,
		Severity: ev.Severity,
		Source:   ev.Source,
		Message:  ev.Message,
	})
}

// DrainInto moves all queued entries into r in arrival order and returns
// them. The result may hold more entries than r retains.
func (s *Sink) DrainInto(r *logring.Ring) []core.LogEntry {
	s.mu.Lock()
	pending := s.queue.Entries()
	s.queue.Clear()
	s.mu.Unlock()

	for _, e := range pending {
		r.Push(e)
	}
	return pending
}

// Len returns the number of queued entries.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Dropped returns how many entries were discarded because the queue was full.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}
