// Package render computes what the console shows. Render is pure: it reads
// its inputs, never changes them, and returns the same Layout for the same
// arguments. Painting the Layout is left to a Screen.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"

	"github.com/modoterra/worldconsole/pkg/console/input"
	"github.com/modoterra/worldconsole/pkg/console/logring"
	"github.com/modoterra/worldconsole/pkg/core"
)

// Prompt precedes the input line.
const Prompt = "> "

const (
	ellipsis    = "…"
	ruleRune    = "─"
	wrapIndent  = "  "
	noTimestamp = "--:--:--"
)

// Viewport is the size of the screen in cells.
type Viewport struct {
	Width  int
	Height int
	// HideTimestamps drops the clock column from log rows.
	HideTimestamps bool
}

// LineKind says which part of the screen a line belongs to.
type LineKind int

const (
	LineStatus LineKind = iota
	LineLog
	LineRule
	LineInput
)

// Line is one screen row. Severity is meaningful for LineLog only.
type Line struct {
	Kind     LineKind
	Severity core.Severity
	Text     string
}

// Layout is a full frame: rows top to bottom and the cursor cell.
type Layout struct {
	Width     int
	Height    int
	Lines     []Line
	CursorRow int
	CursorCol int
}

// String joins the rows, for plain output and tests.
func (l Layout) String() string {
	rows := make([]string, len(l.Lines))
	for i, ln := range l.Lines {
		rows[i] = ln.Text
	}
	return strings.Join(rows, "\n")
}

// Status is the snapshot shown on the top row.
type Status struct {
	State    string
	Server   core.ServerStatus
	RSSBytes uint64
	Dropped  uint64
}

// chromeHeight is the smallest screen that shows the status and rule rows.
// Shorter screens show only log rows and the input line.
const chromeHeight = 4

// LogHeight is the number of log rows in a screen of height h.
func LogHeight(h int) int {
	if h >= chromeHeight {
		return h - 3
	}
	return max(0, h-1)
}

// Render lays out a frame. The scroll offset is clamped to the ring.
func Render(ring *logring.Ring, vp Viewport, scroll logring.Scroll, buf input.Buffer, st Status) Layout {
	width := max(vp.Width, 1)
	logRows := LogHeight(vp.Height)

	chrome := vp.Height >= chromeHeight

	lines := make([]Line, 0, logRows+3)
	if chrome {
		lines = append(lines, Line{Kind: LineStatus, Text: statusLine(st, width)})
	}
	lines = append(lines, logLines(ring, vp, scroll, width, logRows)...)
	if chrome {
		lines = append(lines, Line{Kind: LineRule, Text: ruleLine(ring, scroll, width, logRows)})
	}

	text, col := inputLine(buf, width)
	lines = append(lines, Line{Kind: LineInput, Text: text})

	return Layout{
		Width:     width,
		Height:    len(lines),
		Lines:     lines,
		CursorRow: len(lines) - 1,
		CursorCol: col,
	}
}

func statusLine(st Status, width int) string {
	state := st.State
	if state == "" {
		state = "running"
	}
	parts := []string{
		state,
		fmt.Sprintf("tick %d", st.Server.Ticks),
		fmt.Sprintf("%.1f tps", st.Server.TPS),
		plural(st.Server.Players, "player"),
		plural(st.Server.Entities, "entity"),
	}
	if st.Server.WorldTime != "" {
		parts = append(parts, st.Server.WorldTime)
	}
	if st.RSSBytes > 0 {
		parts = append(parts, "rss "+FormatBytes(st.RSSBytes))
	}
	if st.Dropped > 0 {
		parts = append(parts, fmt.Sprintf("dropped %d", st.Dropped))
	}
	return fit(strings.Join(parts, " · "), width)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func logLines(ring *logring.Ring, vp Viewport, scroll logring.Scroll, width, rows int) []Line {
	scroll.Clamp(ring.Len(), rows)
	end := ring.Len() - scroll.Offset

	// Collect wrapped rows from the newest visible entry upwards.
	var collected []Line
	for i := end - 1; i >= 0 && len(collected) < rows; i-- {
		e := ring.At(i)
		wrapped := wrap(entryPrefix(e, vp.HideTimestamps), ansi.Strip(e.Message), width)
		block := make([]Line, len(wrapped))
		for j, text := range wrapped {
			block[j] = Line{Kind: LineLog, Severity: e.Severity, Text: text}
		}
		collected = append(block, collected...)
	}
	if len(collected) > rows {
		collected = collected[len(collected)-rows:]
	}

	out := make([]Line, 0, rows)
	for len(out)+len(collected) < rows {
		out = append(out, Line{Kind: LineLog})
	}
	return append(out, collected...)
}

// FormatEntry renders e as a single unwrapped line.
func FormatEntry(e core.LogEntry, hideTime bool) string {
	return entryPrefix(e, hideTime) + ansi.Strip(e.Message)
}

func entryPrefix(e core.LogEntry, hideTime bool) string {
	var b strings.Builder
	if !hideTime {
		if e.Time.IsZero() {
			b.WriteString(noTimestamp)
		} else {
			b.WriteString(e.Time.Format("15:04:05"))
		}
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Severity.String()))
	if e.Source != "" {
		b.WriteString("[" + e.Source + "] ")
	}
	return b.String()
}

// wrap lays out prefix followed by the words of text in rows no wider
// than width cells. Continuation rows are indented. A word that cannot fit
// on a row of its own is truncated with an ellipsis.
func wrap(prefix, text string, width int) []string {
	indent := wrapIndent
	if width <= 2*uniseg.StringWidth(indent) {
		indent = ""
	}
	indentW := uniseg.StringWidth(indent)

	var rows []string
	var cur strings.Builder
	cur.WriteString(prefix)
	curW := uniseg.StringWidth(prefix)
	fresh := true
	flush := func() {
		rows = append(rows, fit(strings.TrimRight(cur.String(), " "), width))
		cur.Reset()
		cur.WriteString(indent)
		curW = indentW
		fresh = true
	}

	for _, tok := range strings.Fields(text) {
		tw := uniseg.StringWidth(tok)
		sep := 1
		if fresh {
			sep = 0
		}
		if curW+sep+tw > width {
			if !fresh || curW > indentW {
				flush()
				sep = 0
			}
			if avail := width - curW; tw > avail {
				tok = ansi.Truncate(tok, avail, ellipsis)
				tw = uniseg.StringWidth(tok)
			}
		}
		if sep == 1 {
			cur.WriteByte(' ')
		}
		cur.WriteString(tok)
		curW += sep + tw
		fresh = false
	}
	flush()
	return rows
}

func ruleLine(ring *logring.Ring, scroll logring.Scroll, width, rows int) string {
	scroll.Clamp(ring.Len(), rows)
	var label string
	switch {
	case scroll.Follow:
		label = " following "
	default:
		label = fmt.Sprintf(" scrolled ↑ %d · end to follow ", scroll.Offset)
	}
	left := ruleRune + ruleRune + label

	help := " " + helpText() + " "
	lw, hw := uniseg.StringWidth(left), uniseg.StringWidth(help)
	if lw+hw+2 <= width {
		return left + strings.Repeat(ruleRune, width-lw-hw-1) + help + ruleRune
	}
	if lw >= width {
		return ansi.Truncate(left, width, "")
	}
	return left + strings.Repeat(ruleRune, width-lw)
}

func helpText() string {
	bindings := input.DefaultKeyMap.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// inputLine returns the prompt row and the cursor column. The buffer is
// scrolled horizontally so the cursor cell is always visible.
func inputLine(buf input.Buffer, width int) (string, int) {
	runes := buf.Runes()
	cursor := buf.Cursor()
	pw := uniseg.StringWidth(Prompt)
	avail := width - pw
	if avail < 1 {
		return ansi.Truncate(Prompt, width, ""), min(width-1, pw)
	}

	widths := make([]int, len(runes))
	for i, r := range runes {
		widths[i] = max(uniseg.StringWidth(string(r)), 0)
	}

	// Leftmost start that keeps the text before the cursor plus the
	// cursor cell inside avail.
	start, before := cursor, 0
	for start > 0 && before+widths[start-1]+1 <= avail {
		start--
		before += widths[start]
	}

	var b strings.Builder
	b.WriteString(Prompt)
	used := 0
	for i := start; i < len(runes); i++ {
		if used+widths[i] > avail {
			break
		}
		b.WriteRune(runes[i])
		used += widths[i]
	}
	return b.String(), pw + before
}

func fit(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, ellipsis)
}
