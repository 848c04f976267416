package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayTime(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"06:30", 390, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDayTime(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.in, FormatDayTime(got))
	}
}

func TestRoutineBlock_MidnightWrap(t *testing.T) {
	sleep := RoutineBlock{Name: "sleep", Start: 22 * 60, End: 6 * 60}

	assert.True(t, sleep.ContainsMinute(23*60))
	assert.True(t, sleep.ContainsMinute(0))
	assert.True(t, sleep.ContainsMinute(5*60+59))
	assert.False(t, sleep.ContainsMinute(6*60))
	assert.False(t, sleep.ContainsMinute(12*60))

	morning := RoutineBlock{Name: "morning", Start: 5 * 60, End: 9 * 60}
	assert.True(t, sleep.Overlaps(morning))
	day := RoutineBlock{Name: "day", Start: 9 * 60, End: 17 * 60}
	assert.False(t, sleep.Overlaps(day))
}

func TestAwarenessProfiles_Validate(t *testing.T) {
	assert.NoError(t, DefaultProfiles().Validate())

	missing := DefaultProfiles()
	delete(missing, Alert)
	assert.Error(t, missing.Validate())

	// A higher level must never tick slower than a lower one.
	inverted := DefaultProfiles()
	prof := inverted[Deep]
	prof.TickInterval = time.Hour
	inverted[Deep] = prof
	assert.Error(t, inverted.Validate())

	outOfRange := DefaultProfiles()
	prof = outOfRange[Passive]
	prof.LLMCallProbability = 1.2
	outOfRange[Passive] = prof
	assert.Error(t, outOfRange.Validate())
}

func TestAwarenessLevel_ParseRoundTrip(t *testing.T) {
	for l := Dormant; l <= Deep; l++ {
		got, err := ParseAwarenessLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseAwarenessLevel("WIDE_AWAKE")
	assert.Error(t, err)
}

func TestUrgency_PolicyConstants(t *testing.T) {
	assert.Equal(t, 6*time.Hour, UrgencyCritical.BaseInterval())
	assert.Equal(t, 12*time.Hour, UrgencyHigh.BaseInterval())
	assert.Equal(t, 24*time.Hour, UrgencyNormal.BaseInterval())
	assert.Equal(t, 72*time.Hour, UrgencyLow.BaseInterval())

	assert.Equal(t, 9, UrgencyCritical.FollowUpPriority())
	assert.Equal(t, 7, UrgencyHigh.FollowUpPriority())
	assert.Equal(t, 5, UrgencyNormal.FollowUpPriority())
	assert.Equal(t, 3, UrgencyLow.FollowUpPriority())
}

func TestNewEvent_ClampsPriority(t *testing.T) {
	assert.Equal(t, PriorityMax, NewEvent(EventScheduledCheck, "src", "", 99).Priority)
	assert.Equal(t, PriorityMin, NewEvent(EventScheduledCheck, "src", "", -4).Priority)

	user := NewUserMessageEvent("owner-1", "hello")
	assert.True(t, user.IsUserInput())
	assert.True(t, user.RequiresLLM)
}
