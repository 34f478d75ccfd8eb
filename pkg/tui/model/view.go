package model

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/modoterra/worldconsole/pkg/console/render"
	"github.com/modoterra/worldconsole/pkg/core"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cursorStyle = lipgloss.NewStyle().Reverse(true)

	sevDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sevInfo  = lipgloss.NewStyle()
	sevWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sevError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	ruleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the latest layout.
func (a App) View() string {
	if len(a.layout.Lines) == 0 {
		return "starting..."
	}

	rows := make([]string, len(a.layout.Lines))
	for i, ln := range a.layout.Lines {
		switch ln.Kind {
		case render.LineStatus:
			rows[i] = statusBarStyle.Width(a.layout.Width).Render(ln.Text)
		case render.LineLog:
			rows[i] = severityStyle(ln.Severity).Render(ln.Text)
		case render.LineRule:
			rows[i] = ruleStyle.Render(ln.Text)
		case render.LineInput:
			rows[i] = ln.Text
		}
		if i == a.layout.CursorRow {
			rows[i] = withCursor(ln.Text, a.layout.CursorCol)
		}
	}
	return strings.Join(rows, "\n")
}

func severityStyle(s core.Severity) lipgloss.Style {
	switch s {
	case core.SeverityDebug:
		return sevDebug
	case core.SeverityWarn:
		return sevWarn
	case core.SeverityError:
		return sevError
	default:
		return sevInfo
	}
}

// withCursor draws the prompt and a block cursor at cell col of text.
func withCursor(text string, col int) string {
	width := ansi.StringWidth(text)
	before := ansi.Cut(text, 0, col)
	under := " "
	after := ""
	if col < width {
		if c := ansi.Cut(text, col, col+1); c != "" {
			under = c
		}
		after = ansi.Cut(text, col+ansi.StringWidth(under), width)
	}

	if rest, ok := strings.CutPrefix(before, render.Prompt); ok {
		before = promptStyle.Render(render.Prompt) + rest
	}
	return before + cursorStyle.Render(under) + after
}
