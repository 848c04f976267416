package awareness

import (
	"sync"
	"time"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/logging"
)

// DefaultMinDwell is how long an urgency override holds before the machine
// reverts to the scheduled state.
const DefaultMinDwell = 10 * time.Minute

// Options configures a Machine.
type Options struct {
	// Profiles maps each level to its operating parameters. Defaults to
	// core.DefaultProfiles.
	Profiles core.AwarenessProfiles
	// MinDwell is the minimum time an override level is held.
	MinDwell time.Duration
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Machine is the awareness state machine. Initial state is PASSIVE; there is
// no terminal state, it runs until process shutdown. Safe for concurrent
// reads; mutations happen on the dispatcher tick.
type Machine struct {
	mu       sync.Mutex
	profiles core.AwarenessProfiles
	minDwell time.Duration
	logger   logging.Logger

	level core.AwarenessLevel

	// Override bookkeeping. While overrideUntil is in the future the
	// machine reconciles toward overrideLevel instead of the scheduled
	// target.
	overrideLevel core.AwarenessLevel
	overrideUntil time.Time
}

// New constructs a Machine with optional overrides.
func New(optFns ...func(o *Options)) *Machine {
	opts := Options{
		Profiles: core.DefaultProfiles(),
		MinDwell: DefaultMinDwell,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Machine{
		profiles: opts.Profiles,
		minDwell: opts.MinDwell,
		logger:   opts.Logger,
		level:    core.Passive,
	}
}

// Level returns the current awareness level.
func (m *Machine) Level() core.AwarenessLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Profile returns the operating profile of the current level.
func (m *Machine) Profile() core.AwarenessProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[m.level]
}

// ProfileFor returns the profile of an arbitrary level.
func (m *Machine) ProfileFor(l core.AwarenessLevel) core.AwarenessProfile {
	return m.profiles[l]
}

// Reconcile applies the transition for one tick: the active override if its
// dwell has not expired, otherwise the scheduled target. A Mind waking from
// DORMANT never jumps past ALERT in a single tick; the remaining climb
// happens on the following reconcile.
func (m *Machine) Reconcile(now time.Time, target core.AwarenessLevel) core.AwarenessLevel {
	m.mu.Lock()
	defer m.mu.Unlock()

	desired := target
	if now.Before(m.overrideUntil) && m.overrideLevel > desired {
		desired = m.overrideLevel
	}
	return m.stepLocked(now, desired)
}

// Override escalates for a reserved-priority or critical event: FOCUSED for
// priority 8, DEEP for priority 9-10 or critical urgency. The override holds
// for the minimum dwell time before the schedule reasserts itself. Returns
// the level actually entered, which may be ALERT when waking from DORMANT.
func (m *Machine) Override(now time.Time, ev core.Event) core.AwarenessLevel {
	m.mu.Lock()
	defer m.mu.Unlock()

	desired := core.Focused
	if ev.Priority >= 9 || ev.Metadata["urgency"] == core.UrgencyCritical.String() {
		desired = core.Deep
	}
	if desired > m.overrideLevel || now.After(m.overrideUntil) {
		m.overrideLevel = desired
		m.overrideUntil = now.Add(m.minDwell)
	}
	// A still-active higher override keeps precedence; a priority-8 event
	// arriving mid-DEEP-dwell must not downgrade the machine.
	if now.Before(m.overrideUntil) && m.overrideLevel > desired {
		desired = m.overrideLevel
	}
	m.logger.Info("awareness override", "event_id", ev.ID, "priority", ev.Priority, "target", desired.String())
	return m.stepLocked(now, desired)
}

// stepLocked moves the machine toward desired, honoring the DORMANT wake
// guard: no direct DORMANT->FOCUSED/DEEP transition without passing through
// at least ALERT for one tick.
func (m *Machine) stepLocked(now time.Time, desired core.AwarenessLevel) core.AwarenessLevel {
	if m.level == core.Dormant && desired > core.Alert {
		desired = core.Alert
	}
	if desired != m.level {
		m.logger.Debug("awareness transition", "from", m.level.String(), "to", desired.String())
		m.level = desired
	}
	return m.level
}

// Restore forces the level from a persisted snapshot. Override state is not
// persisted; a restored Mind resumes on its schedule.
func (m *Machine) Restore(l core.AwarenessLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l < core.Dormant || l > core.Deep {
		l = core.Passive
	}
	m.level = l
	m.overrideUntil = time.Time{}
}
