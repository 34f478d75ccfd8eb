package model

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/modoterra/worldconsole/pkg/console/render"
	"github.com/modoterra/worldconsole/pkg/termguard"
)

// quitTimeout bounds how long Restore waits for the program to exit before
// killing it.
const quitTimeout = 2 * time.Second

// Session runs the Bubble Tea program on its own goroutine and exposes it
// to the console loop as a terminal.
type Session struct {
	program *tea.Program
	guard   *termguard.Guard

	width  atomic.Int32
	height atomic.Int32

	done   chan struct{}
	runErr error

	restoreOnce sync.Once
	restoreErr  error
}

// Start saves the terminal mode and starts the program in the alternate
// screen. Keystrokes are fed to keys.
func Start(keys KeyFeeder, title string) (*Session, error) {
	guard, err := termguard.Acquire(os.Stdin)
	if err != nil {
		return nil, err
	}

	s := &Session{guard: guard, done: make(chan struct{})}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		s.resize(w, h)
	}

	app := NewApp(keys, title, s.resize)
	s.program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithoutSignalHandler())
	go func() {
		defer close(s.done)
		_, s.runErr = s.program.Run()
	}()
	return s, nil
}

func (s *Session) resize(w, h int) {
	s.width.Store(int32(w))
	s.height.Store(int32(h))
}

// Size returns the last known terminal size, or zeros before the first
// resize.
func (s *Session) Size() (int, int) {
	return int(s.width.Load()), int(s.height.Load())
}

// Paint hands a layout to the program. It is a no-op once the program has
// exited.
func (s *Session) Paint(l render.Layout) {
	s.program.Send(layoutMsg(l))
}

// Done is closed when the program exits, including when it exits on its own.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Restore stops the program and puts the terminal back the way Start found
// it. It is safe to call more than once.
func (s *Session) Restore() error {
	s.restoreOnce.Do(func() {
		s.program.Quit()
		select {
		case <-s.done:
		case <-time.After(quitTimeout):
			s.program.Kill()
			<-s.done
		}

		var errs []error
		if s.runErr != nil && !errors.Is(s.runErr, tea.ErrProgramKilled) {
			errs = append(errs, fmt.Errorf("tui: %w", s.runErr))
		}
		if err := s.guard.Release(); err != nil {
			errs = append(errs, err)
		}
		s.restoreErr = errors.Join(errs...)
	})
	return s.restoreErr
}
