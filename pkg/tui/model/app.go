// Package model is the Bubble Tea front end of the console: it paints the
// layouts the console loop computes and forwards keystrokes back to it.
package model

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/worldconsole/pkg/console/input"
	"github.com/modoterra/worldconsole/pkg/console/render"
)

// KeyFeeder accepts translated keystrokes without blocking.
type KeyFeeder interface {
	Feed(input.KeyEvent) bool
}

// App is the root Bubble Tea model. It holds no console state of its own;
// everything it shows arrives as a layoutMsg.
type App struct {
	keys     KeyFeeder
	onResize func(width, height int)
	title    string

	layout render.Layout
	width  int
	height int
}

// NewApp creates the model. onResize may be nil.
func NewApp(keys KeyFeeder, title string, onResize func(width, height int)) App {
	return App{keys: keys, title: title, onResize: onResize}
}

// layoutMsg carries a frame from the console loop.
type layoutMsg render.Layout

// Init sets the window title.
func (a App) Init() tea.Cmd {
	return tea.SetWindowTitle(a.title)
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.onResize != nil {
			a.onResize(msg.Width, msg.Height)
		}
		return a, nil

	case layoutMsg:
		a.layout = render.Layout(msg)
		return a, nil

	case tea.KeyMsg:
		for _, ev := range input.Translate(msg) {
			a.keys.Feed(ev)
		}
		return a, nil
	}

	return a, nil
}
