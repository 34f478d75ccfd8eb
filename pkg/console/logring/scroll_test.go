package logring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollFollowKeepsBottom(t *testing.T) {
	r := New(8)
	s := NewScroll()
	for i := 0; i < 50; i++ {
		r.Push(entry("x"))
		s.Appended(1, r.Len(), 3)
		assert.True(t, s.Follow)
		assert.Equal(t, 0, s.Offset)
	}
}

func TestScrollUpDisablesFollowUntilJump(t *testing.T) {
	r := New(100)
	for i := 0; i < 20; i++ {
		r.Push(entry("x"))
	}
	s := NewScroll()
	s.Up(1, r.Len(), 5)
	assert.False(t, s.Follow)
	assert.Equal(t, 1, s.Offset)

	// Scrolling back down to the bottom does not resume following.
	s.Down(5, r.Len(), 5)
	assert.False(t, s.Follow)
	assert.Equal(t, 0, s.Offset)

	for i := 0; i < 4; i++ {
		r.Push(entry("y"))
		s.Appended(1, r.Len(), 5)
		assert.False(t, s.Follow)
	}
	assert.Equal(t, 4, s.Offset)

	s.JumpToBottom()
	assert.True(t, s.Follow)
	assert.Equal(t, 0, s.Offset)
}

func TestScrollClamp(t *testing.T) {
	tests := []struct {
		name     string
		offset   int
		ringLen  int
		viewport int
		want     int
	}{
		{"negative", -4, 10, 3, 0},
		{"in range", 4, 10, 3, 4},
		{"past top", 40, 10, 3, 7},
		{"ring shorter than viewport", 2, 2, 10, 0},
		{"empty ring", 1, 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scroll{Offset: tt.offset}
			s.Clamp(tt.ringLen, tt.viewport)
			assert.Equal(t, tt.want, s.Offset)
		})
	}
}

func TestScrollAppendedAtCapacityStaysClamped(t *testing.T) {
	r := New(10)
	for i := 0; i < 10; i++ {
		r.Push(entry("x"))
	}
	s := NewScroll()
	s.Up(100, r.Len(), 4)
	assert.Equal(t, 6, s.Offset)
	r.Push(entry("x"))
	s.Appended(1, r.Len(), 4)
	assert.Equal(t, 6, s.Offset)
}
