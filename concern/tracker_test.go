package concern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/internal/testutil"
)

// newTracker builds a tracker on a stepped clock with the sleep window
// disabled, so interval arithmetic is undisturbed.
func newTracker(start time.Time, optFns ...func(o *Options)) (*Tracker, *testutil.StepClock) {
	clock := testutil.NewStepClock(start)
	fns := append([]func(o *Options){func(o *Options) {
		o.Clock = clock
		o.SleepStart = 0
		o.SleepEnd = 0
	}}, optFns...)
	return New(fns...), clock
}

func TestTracker_RegisterSchedulesByUrgency(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, _ := newTracker(start)

	tests := []struct {
		urgency core.Urgency
		want    time.Duration
	}{
		{core.UrgencyCritical, 6 * time.Hour},
		{core.UrgencyHigh, 12 * time.Hour},
		{core.UrgencyNormal, 24 * time.Hour},
		{core.UrgencyLow, 72 * time.Hour},
	}
	for _, tt := range tests {
		c, err := tr.Register(testutil.NewConcern("owner-"+tt.urgency.String(), core.ConcernTask, tt.urgency))
		require.NoError(t, err)
		assert.Equal(t, start.Add(tt.want), c.NextCheckAt, "urgency %s", tt.urgency)
		assert.Equal(t, core.ConcernActive, c.Status)
		assert.NotEmpty(t, c.ID)
	}
}

func TestTracker_BackoffAfterThreeChecks(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	tr, clock := newTracker(start)

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernHealth, core.UrgencyHigh))
	require.NoError(t, err)
	require.Equal(t, start.Add(12*time.Hour), c.NextCheckAt)

	// First three checks keep the 12h base interval; the fourth interval is
	// 12h x 1.5 = 18h.
	wantIntervals := []time.Duration{12 * time.Hour, 12 * time.Hour, 18 * time.Hour}
	for i, want := range wantIntervals {
		cur, _ := tr.Get(c.ID)
		clock.Set(cur.NextCheckAt)
		events := tr.ScanDue(clock.Now())
		require.Len(t, events, 1, "check %d", i+1)

		next, _ := tr.Get(c.ID)
		assert.Equal(t, want, next.NextCheckAt.Sub(cur.NextCheckAt), "interval after check %d", i+1)
	}
}

func TestTracker_BackoffCapped(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	tr, clock := newTracker(start, func(o *Options) {
		o.MaxUnackedFollowUps = 100
		o.MaxAge = 365 * 24 * time.Hour
	})

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernTask, core.UrgencyLow))
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		cur, _ := tr.Get(c.ID)
		clock.Set(cur.NextCheckAt)
		require.Len(t, tr.ScanDue(clock.Now()), 1)
	}
	cur, _ := tr.Get(c.ID)
	assert.Equal(t, DefaultBackoffCap, cur.NextCheckAt.Sub(clock.Now()))
}

func TestTracker_BackoffSurvivesExtremeCheckCounts(t *testing.T) {
	// An old concern kept alive by acknowledgments can accumulate hundreds of
	// checks; the interval must pin at the cap instead of wrapping negative.
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	tr, _ := newTracker(start)

	next := tr.scheduleNext(start, core.UrgencyLow, 500)
	assert.Equal(t, start.Add(DefaultBackoffCap), next)
	assert.True(t, next.After(start))
}

func TestTracker_SleepWindowAvoidance(t *testing.T) {
	// Critical concern raised at 23:50 with sleep window 22:00-06:00: the
	// 05:50 check lands inside the window and is pushed to 06:00.
	start := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	clock := testutil.NewStepClock(start)
	tr := New(func(o *Options) { o.Clock = clock })

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernHealth, core.UrgencyCritical))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC), c.NextCheckAt)
}

func TestTracker_ResolveIsIdempotent(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, _ := newTracker(start)

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernExam, core.UrgencyHigh))
	require.NoError(t, err)

	assert.True(t, tr.Resolve("owner", core.ConcernExam))
	assert.False(t, tr.Resolve("owner", core.ConcernExam))

	got, ok := tr.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, core.ConcernResolved, got.Status)
	assert.Empty(t, tr.Active())
}

func TestTracker_AbandonAfterUnackedBound(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, clock := newTracker(start, func(o *Options) {
		o.MaxAge = 365 * 24 * time.Hour
	})

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernTask, core.UrgencyNormal))
	require.NoError(t, err)

	// Three unacknowledged follow-ups are tolerated; the fourth due check
	// abandons the concern instead of producing an event.
	for i := 0; i < 3; i++ {
		cur, _ := tr.Get(c.ID)
		clock.Set(cur.NextCheckAt)
		require.Len(t, tr.ScanDue(clock.Now()), 1, "follow-up %d", i+1)
	}
	cur, _ := tr.Get(c.ID)
	clock.Set(cur.NextCheckAt)
	assert.Empty(t, tr.ScanDue(clock.Now()))

	got, _ := tr.Get(c.ID)
	assert.Equal(t, core.ConcernAbandoned, got.Status)
}

func TestTracker_AcknowledgeResetsUnackedCount(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, clock := newTracker(start)

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernEmotion, core.UrgencyNormal))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cur, _ := tr.Get(c.ID)
		clock.Set(cur.NextCheckAt)
		require.Len(t, tr.ScanDue(clock.Now()), 1)
	}
	tr.Acknowledge("owner", core.ConcernEmotion)

	got, _ := tr.Get(c.ID)
	assert.Equal(t, 0, got.UnackedFollowUps)
	assert.Equal(t, core.ConcernActive, got.Status)
}

func TestTracker_AbandonPastMaxAge(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, clock := newTracker(start)

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernTask, core.UrgencyLow))
	require.NoError(t, err)

	clock.Advance(15 * 24 * time.Hour)
	assert.Empty(t, tr.ScanDue(clock.Now()))

	got, _ := tr.Get(c.ID)
	assert.Equal(t, core.ConcernAbandoned, got.Status)
}

func TestTracker_ScanDueOrdersByUrgencyThenID(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, clock := newTracker(start)

	_, err := tr.Register(testutil.NewConcern("owner", core.ConcernTask, core.UrgencyNormal))
	require.NoError(t, err)
	_, err = tr.Register(testutil.NewConcern("owner", core.ConcernHealth, core.UrgencyCritical))
	require.NoError(t, err)
	_, err = tr.Register(testutil.NewConcern("owner", core.ConcernExam, core.UrgencyHigh))
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	events := tr.ScanDue(clock.Now())
	require.Len(t, events, 3)
	assert.Equal(t, "critical", events[0].Metadata["urgency"])
	assert.Equal(t, 9, events[0].Priority)
	assert.Equal(t, "high", events[1].Metadata["urgency"])
	assert.Equal(t, 7, events[1].Priority)
	assert.Equal(t, "normal", events[2].Metadata["urgency"])
	assert.Equal(t, 5, events[2].Priority)
}

func TestTracker_RegisterMergesActiveDuplicate(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, _ := newTracker(start)

	first, err := tr.Register(testutil.NewConcern("owner", core.ConcernHealth, core.UrgencyNormal))
	require.NoError(t, err)

	second, err := tr.Register(testutil.NewConcern("owner", core.ConcernHealth, core.UrgencyCritical))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, core.UrgencyCritical, second.Urgency)
	assert.Len(t, tr.Active(), 1)
	// The escalated urgency pulls the check time forward.
	assert.True(t, second.NextCheckAt.Before(first.NextCheckAt))
}

func TestTracker_SnapshotRestoreRoundTrip(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr, _ := newTracker(start)

	c, err := tr.Register(testutil.NewConcern("owner", core.ConcernTask, core.UrgencyHigh))
	require.NoError(t, err)

	restored, _ := newTracker(start)
	restored.Restore(tr.Snapshot())

	got, ok := restored.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, c.NextCheckAt, got.NextCheckAt)
	assert.Len(t, restored.Active(), 1)
}
