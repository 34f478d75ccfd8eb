package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DayLength is how much wall time one world day takes at 1x.
	DayLength = 20 * time.Minute

	minutesPerDay = 24 * 60
	dawnMinute    = 6 * 60
	duskMinute    = 18 * 60
)

// Clock is the world's time of day, counted in world minutes since the
// first midnight.
type Clock struct {
	Minutes float64 `yaml:"minutes"`
}

// Advance moves the clock by dt of wall time.
func (c *Clock) Advance(dt time.Duration) {
	c.Minutes += dt.Seconds() * minutesPerDay / DayLength.Seconds()
}

// Day is the 1-based day number.
func (c Clock) Day() int {
	return int(c.Minutes/minutesPerDay) + 1
}

// MinuteOfDay is in [0, 1440).
func (c Clock) MinuteOfDay() int {
	return int(math.Mod(c.Minutes, minutesPerDay))
}

// IsDay reports whether the sun is up.
func (c Clock) IsDay() bool {
	m := c.MinuteOfDay()
	return m >= dawnMinute && m < duskMinute
}

func (c Clock) String() string {
	m := c.MinuteOfDay()
	return fmt.Sprintf("day %d %02d:%02d", c.Day(), m/60, m%60)
}

// SetTimeOfDay moves to minute m of the current day.
func (c *Clock) SetTimeOfDay(m int) {
	day := math.Floor(c.Minutes / minutesPerDay)
	c.Minutes = day*minutesPerDay + float64(m)
}

// ParseTimeOfDay accepts "day", "night" or "HH:MM".
func ParseTimeOfDay(s string) (int, error) {
	switch strings.ToLower(s) {
	case "day":
		return 7 * 60, nil
	case "night":
		return 19 * 60, nil
	}
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want day, night or HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
