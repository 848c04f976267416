package core

import (
	"fmt"
	"time"
)

// MinutesPerDay is the size of the wall-clock minute space routine blocks
// live in.
const MinutesPerDay = 24 * 60

// RoutineBlock is one time-ranged segment of a Mind's daily schedule. Start
// and End are minutes since midnight; a block with Start > End wraps past
// midnight (e.g. a 22:00-06:00 sleep block). Blocks are created at
// configuration time or added dynamically; they are never auto-deleted, only
// replaced.
type RoutineBlock struct {
	Name            string         `json:"name"`
	Domain          string         `json:"domain"`
	Start           int            `json:"start"`
	End             int            `json:"end"`
	TargetAwareness AwarenessLevel `json:"target_awareness"`
	Activities      []string       `json:"activities,omitempty"`
	Flexible        bool           `json:"flexible"`
}

// Contains reports whether the wall-clock minute of t falls inside the block.
func (b RoutineBlock) Contains(t time.Time) bool {
	return b.ContainsMinute(MinuteOfDay(t))
}

// ContainsMinute reports whether minute m (0..1439) falls inside the block,
// honoring midnight wrap.
func (b RoutineBlock) ContainsMinute(m int) bool {
	if b.Start <= b.End {
		return m >= b.Start && m < b.End
	}
	return m >= b.Start || m < b.End
}

// Overlaps reports whether the two blocks share at least one minute.
func (b RoutineBlock) Overlaps(o RoutineBlock) bool {
	for _, edge := range []int{b.Start, o.Start} {
		if b.ContainsMinute(edge) && o.ContainsMinute(edge) {
			return true
		}
	}
	return false
}

// Validate checks the minute bounds.
func (b RoutineBlock) Validate() error {
	if b.Start < 0 || b.Start >= MinutesPerDay || b.End < 0 || b.End > MinutesPerDay {
		return fmt.Errorf("routine block %q: start/end outside day bounds", b.Name)
	}
	if b.Start == b.End {
		return fmt.Errorf("routine block %q: zero-length block", b.Name)
	}
	return nil
}

// MinuteOfDay converts a timestamp into minutes since local midnight.
func MinuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

// ParseDayTime parses an "HH:MM" string into minutes since midnight.
func ParseDayTime(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// FormatDayTime renders minutes since midnight as "HH:MM".
func FormatDayTime(m int) string { return fmt.Sprintf("%02d:%02d", m/60, m%60) }
