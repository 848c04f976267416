package routine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloop-ai/mindloop/core"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestTable_ResolveDefaultSchedule(t *testing.T) {
	table, err := New(DefaultSchedule())
	require.NoError(t, err)

	tests := []struct {
		when  time.Time
		block string
		level core.AwarenessLevel
	}{
		{at(3, 0), "sleep", core.Dormant},
		{at(7, 30), "morning", core.Alert},
		{at(10, 0), "work-am", core.Focused},
		{at(12, 30), "lunch", core.Passive},
		{at(15, 0), "work-pm", core.Focused},
		{at(20, 0), "evening", core.Alert},
		{at(23, 0), "sleep", core.Dormant},
	}
	for _, tt := range tests {
		b := table.Resolve(tt.when)
		assert.Equal(t, tt.block, b.Name, "at %s", tt.when.Format("15:04"))
		assert.Equal(t, tt.level, b.TargetAwareness, "at %s", tt.when.Format("15:04"))
	}
}

func TestTable_GapsFallBackToRest(t *testing.T) {
	table, err := New([]core.RoutineBlock{
		{Name: "work", Domain: "work", Start: 9 * 60, End: 17 * 60, TargetAwareness: core.Focused},
	})
	require.NoError(t, err)

	b := table.Resolve(at(20, 0))
	assert.Equal(t, "rest", b.Name)
	assert.Equal(t, core.Passive, b.TargetAwareness)
}

func TestTable_NonFlexibleOverlapRejected(t *testing.T) {
	table, err := New([]core.RoutineBlock{
		{Name: "work", Start: 9 * 60, End: 17 * 60, TargetAwareness: core.Focused},
	})
	require.NoError(t, err)

	// Two non-flexible blocks must not share minutes.
	err = table.Add(core.RoutineBlock{Name: "meeting", Start: 10 * 60, End: 11 * 60, TargetAwareness: core.Alert})
	assert.Error(t, err)

	// Two flexible blocks may.
	table, err = New([]core.RoutineBlock{
		{Name: "reading", Start: 9 * 60, End: 12 * 60, TargetAwareness: core.Alert, Flexible: true},
		{Name: "music", Start: 10 * 60, End: 13 * 60, TargetAwareness: core.Passive, Flexible: true},
	})
	require.NoError(t, err)

	// Overlap ties resolve by earliest start.
	assert.Equal(t, "reading", table.Resolve(at(11, 0)).Name)
}

func TestTable_FlexibleMayOverlapNonFlexible(t *testing.T) {
	table, err := New([]core.RoutineBlock{
		{Name: "work", Start: 9 * 60, End: 17 * 60, TargetAwareness: core.Focused},
	})
	require.NoError(t, err)

	require.NoError(t, table.Add(core.RoutineBlock{
		Name: "music", Start: 10 * 60, End: 11 * 60, TargetAwareness: core.Passive, Flexible: true,
	}))

	// Earliest start wins among overlapping matches.
	assert.Equal(t, "work", table.Resolve(at(10, 30)).Name)

	// At an equal start, the non-flexible block wins the tie.
	require.NoError(t, table.Add(core.RoutineBlock{
		Name: "radio", Start: 9 * 60, End: 12 * 60, TargetAwareness: core.Alert, Flexible: true,
	}))
	assert.Equal(t, "work", table.Resolve(at(9, 30)).Name)

	// Where only the flexible block covers the minute, it applies.
	require.NoError(t, table.Add(core.RoutineBlock{
		Name: "stretch", Start: 17 * 60, End: 18 * 60, TargetAwareness: core.Passive, Flexible: true,
	}))
	assert.Equal(t, "stretch", table.Resolve(at(17, 30)).Name)
}

func TestTable_AddReplacesByName(t *testing.T) {
	table, err := New([]core.RoutineBlock{
		{Name: "work", Start: 9 * 60, End: 17 * 60, TargetAwareness: core.Focused},
	})
	require.NoError(t, err)

	require.NoError(t, table.Add(core.RoutineBlock{
		Name: "work", Start: 8 * 60, End: 16 * 60, TargetAwareness: core.Alert,
	}))

	require.Len(t, table.Blocks(), 1)
	assert.Equal(t, core.Alert, table.Resolve(at(8, 30)).TargetAwareness)
	assert.Equal(t, "rest", table.Resolve(at(16, 30)).Name)
}

func TestTable_MidnightWrappingBlock(t *testing.T) {
	table, err := New([]core.RoutineBlock{
		{Name: "sleep", Start: 22 * 60, End: 6 * 60, TargetAwareness: core.Dormant},
	})
	require.NoError(t, err)

	assert.Equal(t, "sleep", table.Resolve(at(23, 30)).Name)
	assert.Equal(t, "sleep", table.Resolve(at(2, 0)).Name)
	assert.Equal(t, "rest", table.Resolve(at(12, 0)).Name)
}

func TestRoutineBlock_Validate(t *testing.T) {
	assert.Error(t, core.RoutineBlock{Name: "bad", Start: -1, End: 60}.Validate())
	assert.Error(t, core.RoutineBlock{Name: "empty", Start: 600, End: 600}.Validate())
	assert.NoError(t, core.RoutineBlock{Name: "ok", Start: 600, End: 660}.Validate())
}
