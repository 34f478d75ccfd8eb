// Package input turns operator keystrokes into edits of the command line.
package input

// KeyKind identifies a keystroke the console understands.
type KeyKind int

const (
	KeyChar KeyKind = iota
	KeyBackspace
	KeyEnter
	KeyEscape
	KeyUp
	KeyDown
	KeyCtrlC
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
)

func (k KeyKind) String() string {
	switch k {
	case KeyChar:
		return "char"
	case KeyBackspace:
		return "backspace"
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "escape"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyCtrlC:
		return "ctrl+c"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyHome:
		return "home"
	case KeyEnd:
		return "end"
	case KeyPageUp:
		return "pgup"
	case KeyPageDown:
		return "pgdown"
	case KeyDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// KeyEvent is a single keystroke. Rune is set only for KeyChar.
type KeyEvent struct {
	Kind KeyKind
	Rune rune
}

// Char returns a KeyChar event for r.
func Char(r rune) KeyEvent {
	return KeyEvent{Kind: KeyChar, Rune: r}
}

// Chars returns one KeyChar event per rune of s.
func Chars(s string) []KeyEvent {
	evs := make([]KeyEvent, 0, len(s))
	for _, r := range s {
		evs = append(evs, Char(r))
	}
	return evs
}
