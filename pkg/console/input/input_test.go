package input

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEditing(t *testing.T) {
	var b Buffer
	for _, r := range "spwn" {
		b.Insert(r)
	}
	b.Left()
	b.Left()
	b.Insert('a')
	assert.Equal(t, "spawn", b.String())
	assert.Equal(t, 3, b.Cursor())

	b.Backspace()
	assert.Equal(t, "spwn", b.String())
	b.Delete()
	assert.Equal(t, "spn", b.String())
	assert.Equal(t, 2, b.Cursor())

	b.Home()
	b.Backspace()
	assert.Equal(t, 0, b.Cursor())
	b.End()
	b.Delete()
	b.Right()
	assert.Equal(t, 3, b.Cursor())
	assert.Equal(t, "spn", b.Submit())
	assert.Equal(t, "", b.String())
	assert.Equal(t, 0, b.Cursor())
}

func TestBufferCursorInvariant(t *testing.T) {
	b := NewBuffer("héllo")
	ops := []func(){b.Left, b.Right, b.Home, b.End, b.Backspace, b.Delete, func() { b.Insert('x') }}
	for i := 0; i < 200; i++ {
		ops[(i*7+3)%len(ops)]()
		require.GreaterOrEqual(t, b.Cursor(), 0)
		require.LessOrEqual(t, b.Cursor(), b.Len())
	}
}

func TestReaderPoll(t *testing.T) {
	r := NewReader(2)
	_, ok := r.Poll(0)
	assert.False(t, ok)

	assert.True(t, r.Feed(Char('a')))
	assert.True(t, r.Feed(Char('b')))
	assert.False(t, r.Feed(Char('c')), "full queue drops")

	ev, ok := r.Poll(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, Char('a'), ev)

	start := time.Now()
	ev, ok = r.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, Char('b'), ev)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	start = time.Now()
	_, ok = r.Poll(20 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestReaderClose(t *testing.T) {
	r := NewReader(4)
	r.Feed(Char('a'))
	r.Close()
	r.Close()
	assert.True(t, r.Closed())

	_, ok := r.Poll(time.Second)
	assert.False(t, ok)
	assert.False(t, r.Feed(Char('b')))
	assert.Error(t, r.Send(context.Background(), Char('b')))
}

func TestReadLines(t *testing.T) {
	r := NewReader(64)
	err := ReadLines(context.Background(), strings.NewReader("help\nqt\n"), r)
	require.NoError(t, err)

	var b Buffer
	var lines []string
	for {
		ev, ok := r.Poll(0)
		if !ok {
			break
		}
		switch ev.Kind {
		case KeyChar:
			b.Insert(ev.Rune)
		case KeyEnter:
			lines = append(lines, b.Submit())
		}
	}
	assert.Equal(t, []string{"help", "qt"}, lines)
}

func TestReadLinesStopsOnCancel(t *testing.T) {
	r := NewReader(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadLines(ctx, strings.NewReader("long line\n"), r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want []KeyEvent
	}{
		{"rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, []KeyEvent{Char('q')}},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab"), Paste: true}, []KeyEvent{Char('a'), Char('b')}},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, []KeyEvent{Char(' ')}},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, []KeyEvent{{Kind: KeyEnter}}},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, []KeyEvent{{Kind: KeyBackspace}}},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, []KeyEvent{{Kind: KeyEscape}}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, []KeyEvent{{Kind: KeyCtrlC}}},
		{"up", tea.KeyMsg{Type: tea.KeyUp}, []KeyEvent{{Kind: KeyUp}}},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, []KeyEvent{{Kind: KeyDown}}},
		{"pgup", tea.KeyMsg{Type: tea.KeyPgUp}, []KeyEvent{{Kind: KeyPageUp}}},
		{"pgdown", tea.KeyMsg{Type: tea.KeyPgDown}, []KeyEvent{{Kind: KeyPageDown}}},
		{"end", tea.KeyMsg{Type: tea.KeyEnd}, []KeyEvent{{Kind: KeyEnd}}},
		{"home", tea.KeyMsg{Type: tea.KeyHome}, []KeyEvent{{Kind: KeyHome}}},
		{"delete", tea.KeyMsg{Type: tea.KeyDelete}, []KeyEvent{{Kind: KeyDelete}}},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, []KeyEvent{{Kind: KeyLeft}}},
		{"right", tea.KeyMsg{Type: tea.KeyRight}, []KeyEvent{{Kind: KeyRight}}},
		{"unbound", tea.KeyMsg{Type: tea.KeyF5}, nil},
		{"alt rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true}, nil},
		{"control rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{0x07}}, []KeyEvent{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(tt.msg))
		})
	}
}
