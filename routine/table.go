package routine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mindloop-ai/mindloop/core"
)

// FallbackBlock is returned for any timestamp no configured block covers.
func FallbackBlock() core.RoutineBlock {
	return core.RoutineBlock{
		Name:            "rest",
		Domain:          "rest",
		Start:           0,
		End:             core.MinutesPerDay,
		TargetAwareness: core.Passive,
		Flexible:        true,
	}
}

// Table resolves the scheduled routine block for any wall-clock time.
// Adding a block at runtime takes effect on the next Resolve call; it never
// retroactively changes state already committed for the current tick.
type Table struct {
	mu       sync.RWMutex
	blocks   []core.RoutineBlock
	fallback core.RoutineBlock
}

// New constructs a Table from the given blocks. Two blocks may overlap only
// when at least one of them is flexible.
func New(blocks []core.RoutineBlock) (*Table, error) {
	t := &Table{fallback: FallbackBlock()}
	for _, b := range blocks {
		if err := t.Add(b); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Resolve returns exactly one block for the given timestamp. Overlap ties
// resolve by earliest start time, then by the non-flexible block when a
// flexible block shares its start.
func (t *Table) Resolve(now time.Time) core.RoutineBlock {
	t.mu.RLock()
	defer t.mu.RUnlock()

	minute := core.MinuteOfDay(now)
	var matches []core.RoutineBlock
	for _, b := range t.blocks {
		if b.ContainsMinute(minute) {
			matches = append(matches, b)
		}
	}
	switch len(matches) {
	case 0:
		return t.fallback
	case 1:
		return matches[0]
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return !matches[i].Flexible && matches[j].Flexible
	})
	return matches[0]
}

// Add inserts a block at runtime. An overlap is rejected only when neither
// block is flexible. A block with the same name replaces its predecessor.
func (t *Table) Add(b core.RoutineBlock) error {
	if err := b.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.blocks[:0:0]
	for _, existing := range t.blocks {
		if existing.Name != b.Name {
			kept = append(kept, existing)
		}
	}
	for _, existing := range kept {
		if existing.Overlaps(b) && !existing.Flexible && !b.Flexible {
			return fmt.Errorf("routine blocks %q and %q overlap and neither is flexible", b.Name, existing.Name)
		}
	}
	kept = append(kept, b)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	t.blocks = kept
	return nil
}

// Blocks returns a copy of the configured blocks in start order.
func (t *Table) Blocks() []core.RoutineBlock {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := make([]core.RoutineBlock, len(t.blocks))
	copy(cp, t.blocks)
	return cp
}

// DefaultSchedule is a plausible daily rhythm used when no configuration is
// supplied: sleep, a gentle morning, two focused work stretches, and a
// winding-down evening. DEEP is reached only via urgency override.
func DefaultSchedule() []core.RoutineBlock {
	mustMin := func(s string) int {
		m, err := core.ParseDayTime(s)
		if err != nil {
			panic(err)
		}
		return m
	}
	return []core.RoutineBlock{
		{Name: "sleep", Domain: "rest", Start: mustMin("22:00"), End: mustMin("06:00"), TargetAwareness: core.Dormant},
		{Name: "morning", Domain: "personal", Start: mustMin("06:00"), End: mustMin("09:00"), TargetAwareness: core.Alert, Activities: []string{"check-in", "planning"}},
		{Name: "work-am", Domain: "work", Start: mustMin("09:00"), End: mustMin("12:00"), TargetAwareness: core.Focused},
		{Name: "lunch", Domain: "personal", Start: mustMin("12:00"), End: mustMin("13:00"), TargetAwareness: core.Passive, Flexible: true},
		{Name: "work-pm", Domain: "work", Start: mustMin("13:00"), End: mustMin("18:00"), TargetAwareness: core.Focused},
		{Name: "evening", Domain: "personal", Start: mustMin("18:00"), End: mustMin("22:00"), TargetAwareness: core.Alert, Flexible: true},
	}
}
