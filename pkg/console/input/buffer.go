package input

// Buffer is the unsubmitted command line. The cursor is a rune index in
// [0, len]. The zero value is an empty buffer.
type Buffer struct {
	runes  []rune
	cursor int
}

// NewBuffer returns a buffer holding s with the cursor at the end.
func NewBuffer(s string) Buffer {
	r := []rune(s)
	return Buffer{runes: r, cursor: len(r)}
}

// String returns the buffer contents.
func (b Buffer) String() string { return string(b.runes) }

// Runes returns a copy of the buffer contents.
func (b Buffer) Runes() []rune { return append([]rune(nil), b.runes...) }

// Len returns the number of runes in the buffer.
func (b Buffer) Len() int { return len(b.runes) }

// Cursor returns the cursor position.
func (b Buffer) Cursor() int { return b.cursor }

// Insert puts r at the cursor and advances it.
func (b *Buffer) Insert(r rune) {
	b.runes = append(b.runes, 0)
	copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
	b.runes[b.cursor] = r
	b.cursor++
}

// Backspace removes the rune before the cursor.
func (b *Buffer) Backspace() {
	if b.cursor == 0 {
		return
	}
	b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
	b.cursor--
}

// Delete removes the rune under the cursor.
func (b *Buffer) Delete() {
	if b.cursor >= len(b.runes) {
		return
	}
	b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
}

func (b *Buffer) Left() {
	if b.cursor > 0 {
		b.cursor--
	}
}

func (b *Buffer) Right() {
	if b.cursor < len(b.runes) {
		b.cursor++
	}
}

func (b *Buffer) Home() { b.cursor = 0 }

func (b *Buffer) End() { b.cursor = len(b.runes) }

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.runes = nil
	b.cursor = 0
}

// Submit returns the contents and clears the buffer.
func (b *Buffer) Submit() string {
	s := b.String()
	b.Clear()
	return s
}
