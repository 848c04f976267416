package mindloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloop-ai/mindloop/core"
)

func TestNew_Defaults(t *testing.T) {
	mind, err := New()
	require.NoError(t, err)

	st := mind.Status()
	assert.Equal(t, core.Passive, st.AwarenessLevel)
	assert.Equal(t, 0, st.QueueDepth)
	assert.Equal(t, 50, st.BudgetRemaining)
	assert.Equal(t, 0, st.ActiveConcerns)
}

func TestNew_RejectsInvalidProfiles(t *testing.T) {
	bad := core.DefaultProfiles()
	prof := bad[core.Deep]
	prof.TickInterval = time.Hour
	bad[core.Deep] = prof

	_, err := New(func(o *Options) { o.Profiles = bad })
	assert.Error(t, err)
}

func TestMind_SayIsProcessedPromptly(t *testing.T) {
	mind, err := New(func(o *Options) { o.ID = "aria" })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mind.Run(ctx) }()

	require.NoError(t, mind.Say("I've had a fever since yesterday"))

	// Direct user input wakes the loop regardless of the PASSIVE tick
	// interval: the event drains, awareness escalates and the health concern
	// is tracked.
	assert.Eventually(t, func() bool {
		st := mind.Status()
		return st.QueueDepth == 0 && st.AwarenessLevel == core.Deep && st.ActiveConcerns == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not shut down")
	}
}

func TestMind_RegisterConcernDefaultsOwner(t *testing.T) {
	mind, err := New(func(o *Options) { o.ID = "aria" })
	require.NoError(t, err)

	c, err := mind.RegisterConcern(core.Concern{Type: core.ConcernTask, Urgency: core.UrgencyNormal})
	require.NoError(t, err)
	assert.Equal(t, "aria", c.OwnerID)
	assert.Equal(t, 1, mind.Status().ActiveConcerns)
}
