// Package procstat reads process statistics from /proc.
package procstat

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// clockTicks is USER_HZ, which is 100 on every Linux platform we run on.
const clockTicks = 100

// Stat is a snapshot of one process.
type Stat struct {
	PID      int
	Comm     string
	State    string
	Threads  int
	RSSBytes uint64
	CPUTime  time.Duration // user + system
	Cmdline  string
}

// Root is the procfs mount point.
var Root = "/proc"

// Read returns the statistics of pid.
func Read(pid int) (Stat, error) {
	raw, err := os.ReadFile(fmt.Sprintf("%s/%d/stat", Root, pid))
	if err != nil {
		return Stat{}, fmt.Errorf("read stat: %w", err)
	}
	st, err := ParseStat(string(raw), os.Getpagesize())
	if err != nil {
		return Stat{}, err
	}
	if cmdline, err := os.ReadFile(fmt.Sprintf("%s/%d/cmdline", Root, pid)); err == nil {
		st.Cmdline = strings.TrimSpace(strings.ReplaceAll(string(cmdline), "\x00", " "))
	}
	return st, nil
}

// Self returns the statistics of the current process.
func Self() (Stat, error) {
	return Read(os.Getpid())
}

// ParseStat parses the contents of /proc/<pid>/stat. The command name may
// contain spaces and parentheses, so fields are counted from the last ')'.
func ParseStat(raw string, pageSize int) (Stat, error) {
	open := strings.IndexByte(raw, '(')
	closing := strings.LastIndexByte(raw, ')')
	if open < 0 || closing < open {
		return Stat{}, fmt.Errorf("parse stat: malformed %q", raw)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(raw[:open]))
	if err != nil {
		return Stat{}, fmt.Errorf("parse stat: pid: %w", err)
	}

	// fields[0] is field 3 (state) in proc(5) numbering.
	fields := strings.Fields(raw[closing+1:])
	if len(fields) < 22 {
		return Stat{}, fmt.Errorf("parse stat: want at least 22 fields after comm, got %d", len(fields))
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("parse stat: utime: %w", err)
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("parse stat: stime: %w", err)
	}
	threads, err := strconv.Atoi(fields[17])
	if err != nil {
		return Stat{}, fmt.Errorf("parse stat: num_threads: %w", err)
	}
	rss, err := strconv.ParseInt(fields[21], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("parse stat: rss: %w", err)
	}
	if rss < 0 {
		rss = 0
	}

	return Stat{
		PID:      pid,
		Comm:     raw[open+1 : closing],
		State:    fields[0],
		Threads:  threads,
		RSSBytes: uint64(rss) * uint64(pageSize),
		CPUTime:  time.Duration(utime+stime) * time.Second / clockTicks,
	}, nil
}

// Sample is a Stat plus the CPU usage since the previous sample.
type Sample struct {
	Stat
	CPUPercent float64
	At         time.Time
}

// Sampler rereads a process at most once per interval. Failed reads leave
// the previous sample in place, so callers off Linux see zero values.
type Sampler struct {
	pid      int
	interval time.Duration
	read     func(int) (Stat, error)
	now      func() time.Time

	mu   sync.Mutex
	last Sample
}

// NewSampler creates a sampler for pid.
func NewSampler(pid int, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Sampler{pid: pid, interval: interval, read: Read, now: time.Now}
}

// Get returns the latest sample, refreshing it when it is older than the
// interval.
func (s *Sampler) Get() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.last.At.IsZero() && now.Sub(s.last.At) < s.interval {
		return s.last
	}
	st, err := s.read(s.pid)
	if err != nil {
		s.last.At = now
		return s.last
	}
	next := Sample{Stat: st, At: now}
	if !s.last.At.IsZero() && s.last.PID == st.PID {
		if wall := now.Sub(s.last.At); wall > 0 {
			next.CPUPercent = 100 * float64(st.CPUTime-s.last.CPUTime) / float64(wall)
		}
	}
	s.last = next
	return next
}
