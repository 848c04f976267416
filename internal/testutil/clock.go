package testutil

import (
	"sync"
	"time"
)

// StepClock is a manually advanced core.Clock. Scheduling tests step it past
// check times instead of sleeping.
type StepClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewStepClock starts a clock at the given instant.
func NewStepClock(t time.Time) *StepClock {
	return &StepClock{t: t}
}

// Now returns the current simulated instant.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward and returns the new instant.
func (c *StepClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

// Set jumps the clock to an absolute instant.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
