package input

import (
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap binds terminal keys to console keystrokes.
type KeyMap struct {
	Quit      key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Backspace key.Binding
	Delete    key.Binding
	Left      key.Binding
	Right     key.Binding
	Home      key.Binding
	Bottom    key.Binding
	LineUp    key.Binding
	LineDown  key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

// DefaultKeyMap is the console's key binding set.
var DefaultKeyMap = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Backspace: key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
	Delete:    key.NewBinding(key.WithKeys("delete", "ctrl+d")),
	Left:      key.NewBinding(key.WithKeys("left", "ctrl+b")),
	Right:     key.NewBinding(key.WithKeys("right", "ctrl+f")),
	Home:      key.NewBinding(key.WithKeys("home", "ctrl+a")),
	Bottom:    key.NewBinding(key.WithKeys("end", "ctrl+e"), key.WithHelp("end", "follow")),
	LineUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "scroll")),
	LineDown:  key.NewBinding(key.WithKeys("down")),
	PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "page")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown")),
}

// ShortHelp lists the bindings shown in the console footer.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Submit, km.LineUp, km.Bottom, km.Quit}
}

// Translate maps a terminal key message to console keystrokes. Keys the
// console does not use, and non-printable runes, yield nothing.
func Translate(msg tea.KeyMsg) []KeyEvent {
	return DefaultKeyMap.Translate(msg)
}

// Translate maps msg using km.
func (km KeyMap) Translate(msg tea.KeyMsg) []KeyEvent {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		evs := make([]KeyEvent, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == '\n' || r == '\r' || r == '\t' {
				r = ' '
			}
			if !unicode.IsPrint(r) {
				continue
			}
			evs = append(evs, Char(r))
		}
		return evs
	case tea.KeySpace:
		return []KeyEvent{Char(' ')}
	}

	var kind KeyKind
	switch {
	case key.Matches(msg, km.Quit):
		kind = KeyCtrlC
	case key.Matches(msg, km.Submit):
		kind = KeyEnter
	case key.Matches(msg, km.Cancel):
		kind = KeyEscape
	case key.Matches(msg, km.Backspace):
		kind = KeyBackspace
	case key.Matches(msg, km.Delete):
		kind = KeyDelete
	case key.Matches(msg, km.Left):
		kind = KeyLeft
	case key.Matches(msg, km.Right):
		kind = KeyRight
	case key.Matches(msg, km.Home):
		kind = KeyHome
	case key.Matches(msg, km.Bottom):
		kind = KeyEnd
	case key.Matches(msg, km.LineUp):
		kind = KeyUp
	case key.Matches(msg, km.LineDown):
		kind = KeyDown
	case key.Matches(msg, km.PageUp):
		kind = KeyPageUp
	case key.Matches(msg, km.PageDown):
		kind = KeyPageDown
	default:
		return nil
	}
	return []KeyEvent{{Kind: kind}}
}
