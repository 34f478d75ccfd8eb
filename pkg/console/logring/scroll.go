package logring

// Scroll is the position of the log view, measured in entries from the
// newest one. While Follow is set the view tracks the newest entry and
// Offset stays 0. A manual scroll up clears Follow; only JumpToBottom sets
// it again.
type Scroll struct {
	Offset int
	Follow bool
}

// NewScroll returns a scroll state following the newest entry.
func NewScroll() Scroll {
	return Scroll{Follow: true}
}

// MaxOffset is the largest valid offset for a ring of ringLen entries shown
// in a viewport of the given height.
func MaxOffset(ringLen, viewport int) int {
	return max(0, ringLen-viewport)
}

// Up scrolls n entries towards older history and stops following.
func (s *Scroll) Up(n, ringLen, viewport int) {
	s.Follow = false
	s.Offset += max(n, 0)
	s.Clamp(ringLen, viewport)
}

// Down scrolls n entries towards newer history. Reaching the bottom does
// not resume following.
func (s *Scroll) Down(n, ringLen, viewport int) {
	if s.Follow {
		return
	}
	s.Offset -= max(n, 0)
	s.Clamp(ringLen, viewport)
}

// JumpToBottom shows the newest entry and resumes following.
func (s *Scroll) JumpToBottom() {
	s.Follow = true
	s.Offset = 0
}

// Appended accounts for n entries added to the ring. A detached view keeps
// showing the same entries; a following view stays at the bottom.
func (s *Scroll) Appended(n, ringLen, viewport int) {
	if !s.Follow && n > 0 {
		s.Offset += n
	}
	s.Clamp(ringLen, viewport)
}

// Clamp restricts Offset to [0, MaxOffset(ringLen, viewport)].
func (s *Scroll) Clamp(ringLen, viewport int) {
	if s.Follow {
		s.Offset = 0
		return
	}
	s.Offset = min(max(s.Offset, 0), MaxOffset(ringLen, viewport))
}
