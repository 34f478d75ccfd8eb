// Package termguard saves the terminal mode on acquire and puts it back
// exactly once on release, whatever path the process takes to exit.
package termguard

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// Guard holds the saved state of one terminal.
type Guard struct {
	fd    int
	state *term.State
	once  sync.Once
	err   error
}

// Acquire records the current mode of f. When f is not a terminal the guard
// is inert and Release does nothing.
func Acquire(f *os.File) (*Guard, error) {
	g := &Guard{fd: -1}
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return g, nil
	}
	st, err := term.GetState(int(f.Fd()))
	if err != nil {
		return nil, fmt.Errorf("save terminal state: %w", err)
	}
	g.fd = int(f.Fd())
	g.state = st
	return g, nil
}

// Active reports whether the guard holds a terminal state.
func (g *Guard) Active() bool {
	return g != nil && g.state != nil
}

// Release restores the saved mode. Only the first call does any work; later
// calls return the first call's result.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		if g.state == nil {
			return
		}
		if err := term.Restore(g.fd, g.state); err != nil {
			g.err = fmt.Errorf("restore terminal state: %w", err)
		}
	})
	return g.err
}
