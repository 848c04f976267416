package awareness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/internal/testutil"
)

func TestMachine_InitialStateIsPassive(t *testing.T) {
	m := New()
	assert.Equal(t, core.Passive, m.Level())
}

func TestMachine_ScheduledTransition(t *testing.T) {
	m := New()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, core.Focused, m.Reconcile(now, core.Focused))
	assert.Equal(t, core.Dormant, m.Reconcile(now.Add(time.Minute), core.Dormant))
}

func TestMachine_OverrideEscalatesByPriority(t *testing.T) {
	tests := []struct {
		name     string
		event    core.Event
		expected core.AwarenessLevel
	}{
		{"priority 8 parks at FOCUSED", testutil.NewEvent(8).Build(), core.Focused},
		{"priority 9 reaches DEEP", testutil.NewEvent(9).Build(), core.Deep},
		{"priority 10 reaches DEEP", testutil.NewEvent(10).Build(), core.Deep},
		{"critical urgency reaches DEEP", testutil.NewEvent(7).Meta("urgency", "critical").Build(), core.Deep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
			assert.Equal(t, tt.expected, m.Override(now, tt.event))
		})
	}
}

func TestMachine_OverrideHoldsForMinDwellThenReverts(t *testing.T) {
	m := New(func(o *Options) { o.MinDwell = 10 * time.Minute })
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	m.Override(now, testutil.NewEvent(9).Build())
	assert.Equal(t, core.Deep, m.Level())

	// The schedule wants PASSIVE but the override dwell has not expired.
	assert.Equal(t, core.Deep, m.Reconcile(now.Add(5*time.Minute), core.Passive))
	// Past the dwell the schedule reasserts itself.
	assert.Equal(t, core.Passive, m.Reconcile(now.Add(11*time.Minute), core.Passive))
}

func TestMachine_LowerOverrideDoesNotDowngradeActiveDwell(t *testing.T) {
	m := New()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	m.Override(now, testutil.NewEvent(10).Build())
	assert.Equal(t, core.Deep, m.Override(now.Add(time.Minute), testutil.NewEvent(8).Build()))
}

func TestMachine_DormantWakeGuard(t *testing.T) {
	m := New()
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	m.Reconcile(now, core.Dormant)

	// Waking straight into DEEP is forbidden: the first tick parks at ALERT,
	// the next continues the climb.
	assert.Equal(t, core.Alert, m.Override(now, testutil.NewEvent(10).Build()))
	assert.Equal(t, core.Deep, m.Reconcile(now.Add(time.Second), core.Passive))
}

func TestMachine_RestoreClampsInvalidLevels(t *testing.T) {
	m := New()
	m.Restore(core.AwarenessLevel(42))
	assert.Equal(t, core.Passive, m.Level())

	m.Restore(core.Deep)
	assert.Equal(t, core.Deep, m.Level())
}
