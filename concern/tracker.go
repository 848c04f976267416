package concern

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/logging"
)

// Defaults for the abandonment and back-off policy.
const (
	// DefaultMaxUnackedFollowUps bounds follow-ups without owner engagement
	// before a concern is abandoned.
	DefaultMaxUnackedFollowUps = 3
	// DefaultMaxAge is the maximum concern age before abandonment.
	DefaultMaxAge = 14 * 24 * time.Hour
	// DefaultBackoffFactor multiplies the check interval once a concern has
	// been checked three or more times unresolved.
	DefaultBackoffFactor = 1.5
	// DefaultBackoffCap bounds the backed-off interval.
	DefaultBackoffCap = 7 * 24 * time.Hour
)

// Options configures a Tracker.
type Options struct {
	// SleepStart/SleepEnd delimit the owner's sleep window in minutes since
	// midnight. Follow-ups landing inside are pushed to the window end.
	// Equal values disable the window.
	SleepStart int
	SleepEnd   int

	MaxUnackedFollowUps int
	MaxAge              time.Duration
	BackoffFactor       float64
	BackoffCap          time.Duration

	Clock  core.Clock
	Logger logging.Logger
}

// Tracker owns all concern records for one Mind. The dispatcher only reads
// them (via ScanDue) to synthesize follow-up events; every mutation happens
// inside the tracker.
type Tracker struct {
	mu       sync.Mutex
	concerns map[string]*core.Concern
	entropy  *rand.Rand
	opts     Options
}

// New constructs a Tracker. The default sleep window is 22:00-06:00.
func New(optFns ...func(o *Options)) *Tracker {
	opts := Options{
		SleepStart:          22 * 60,
		SleepEnd:            6 * 60,
		MaxUnackedFollowUps: DefaultMaxUnackedFollowUps,
		MaxAge:              DefaultMaxAge,
		BackoffFactor:       DefaultBackoffFactor,
		BackoffCap:          DefaultBackoffCap,
		Clock:               core.SystemClock{},
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tracker{
		concerns: make(map[string]*core.Concern),
		entropy:  rand.New(rand.NewSource(opts.Clock.Now().UnixNano())),
		opts:     opts,
	}
}

// Register stores a new concern, assigning ID, creation time and first check
// time when absent. Registering a concern whose owner and type already match
// an active record merges into it instead: urgency and severity are raised
// to the maximum of the two and the earlier check time wins.
func (t *Tracker) Register(c core.Concern) (core.Concern, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c.OwnerID == "" {
		return core.Concern{}, fmt.Errorf("concern has no owner")
	}
	if c.Type == "" {
		return core.Concern{}, fmt.Errorf("concern has no type")
	}

	if existing := t.findActiveLocked(c.OwnerID, c.Type); existing != nil {
		if c.Urgency > existing.Urgency {
			existing.Urgency = c.Urgency
		}
		if c.Severity > existing.Severity {
			existing.Severity = c.Severity
		}
		refreshed := t.scheduleNext(t.opts.Clock.Now(), existing.Urgency, existing.Checks)
		if refreshed.Before(existing.NextCheckAt) {
			existing.NextCheckAt = refreshed
		}
		return *existing, nil
	}

	now := t.opts.Clock.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.ID == "" {
		c.ID = ulid.MustNew(ulid.Timestamp(c.CreatedAt), t.entropy).String()
	}
	c.Status = core.ConcernActive
	c.Checks = 0
	c.UnackedFollowUps = 0
	if c.NextCheckAt.IsZero() {
		c.NextCheckAt = t.scheduleNext(c.CreatedAt, c.Urgency, 0)
	}
	cp := c
	t.concerns[c.ID] = &cp
	t.opts.Logger.Info("concern registered",
		"concern_id", c.ID, "type", string(c.Type), "urgency", c.Urgency.String(), "next_check_at", c.NextCheckAt)
	return c, nil
}

// findActiveLocked returns the active concern for (owner, type), preferring
// the oldest by ID so merges are deterministic. Caller holds the lock.
func (t *Tracker) findActiveLocked(ownerID string, typ core.ConcernType) *core.Concern {
	var found *core.Concern
	for _, c := range t.concerns {
		if c.OwnerID == ownerID && c.Type == typ && c.Status == core.ConcernActive {
			if found == nil || c.ID < found.ID {
				found = c
			}
		}
	}
	return found
}

// Resolve closes every active concern matching (ownerID, type). Calling it
// again for already-resolved concerns is a no-op, not an error. Returns
// whether any record transitioned.
func (t *Tracker) Resolve(ownerID string, typ core.ConcernType) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := false
	for _, c := range t.concerns {
		if c.OwnerID == ownerID && c.Type == typ && c.Status == core.ConcernActive {
			c.Status = core.ConcernResolved
			changed = true
			t.opts.Logger.Info("concern resolved", "concern_id", c.ID, "type", string(typ))
		}
	}
	return changed
}

// Acknowledge records owner engagement with an active concern without
// resolving it, resetting the unacknowledged follow-up counter.
func (t *Tracker) Acknowledge(ownerID string, typ core.ConcernType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.concerns {
		if c.OwnerID == ownerID && c.Type == typ && c.Status == core.ConcernActive {
			c.UnackedFollowUps = 0
		}
	}
}

// ScanDue finds active concerns whose check time has arrived, synthesizes a
// follow-up event for each, and reschedules or abandons per policy. Due
// concerns in the same scan are processed urgency-first, then by ID, so two
// concerns of the same owner becoming due together drain deterministically.
func (t *Tracker) ScanDue(now time.Time) []core.Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	var due []*core.Concern
	for _, c := range t.concerns {
		if c.Status == core.ConcernActive && !c.NextCheckAt.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Urgency != due[j].Urgency {
			return due[i].Urgency > due[j].Urgency
		}
		return due[i].ID < due[j].ID
	})

	var events []core.Event
	for _, c := range due {
		if now.Sub(c.CreatedAt) > t.opts.MaxAge {
			c.Status = core.ConcernAbandoned
			t.opts.Logger.Info("concern abandoned", "concern_id", c.ID, "reason", "aged out", "checks", c.Checks)
			continue
		}
		c.UnackedFollowUps++
		if c.UnackedFollowUps > t.opts.MaxUnackedFollowUps {
			c.Status = core.ConcernAbandoned
			t.opts.Logger.Info("concern abandoned", "concern_id", c.ID, "reason", "unacknowledged", "checks", c.Checks)
			continue
		}
		c.Checks++
		c.NextCheckAt = t.scheduleNext(now, c.Urgency, c.Checks)
		events = append(events, t.followUpEvent(now, c))
	}
	return events
}

// followUpEvent builds the synthetic event injected into the queue for a due
// concern. Source identity is the concern ID so replayed follow-ups draw the
// same budget decision.
func (t *Tracker) followUpEvent(now time.Time, c *core.Concern) core.Event {
	payload := fmt.Sprintf("follow up on %s concern", c.Type)
	if c.Description != "" {
		payload = fmt.Sprintf("follow up on %s concern: %s", c.Type, c.Description)
	}
	return core.Event{
		ID:        core.NewID(),
		Type:      core.EventFollowUp,
		Payload:   payload,
		Priority:  c.Urgency.FollowUpPriority(),
		CreatedAt: now.UTC(),
		SourceID:  c.ID,
		Metadata: map[string]string{
			"concern_id": c.ID,
			"owner_id":   c.OwnerID,
			"type":       string(c.Type),
			"urgency":    c.Urgency.String(),
		},
	}
}

// scheduleNext computes the next check time: the urgency base interval,
// multiplied by the back-off factor for every check past the second once the
// concern has been checked three or more times, capped, then pushed out of
// the sleep window.
func (t *Tracker) scheduleNext(from time.Time, u core.Urgency, checks int) time.Time {
	interval := u.BaseInterval()
	if checks >= 3 {
		// Cap while still in float space: at high check counts the product
		// would overflow time.Duration and wrap negative.
		scaled := float64(interval)
		limit := float64(t.opts.BackoffCap)
		for i := 0; i < checks-2 && scaled < limit; i++ {
			scaled *= t.opts.BackoffFactor
		}
		if scaled > limit {
			scaled = limit
		}
		interval = time.Duration(scaled)
	}
	return t.avoidSleepWindow(from.Add(interval))
}

// avoidSleepWindow pushes a timestamp landing inside the owner's sleep
// window to the window end.
func (t *Tracker) avoidSleepWindow(at time.Time) time.Time {
	start, end := t.opts.SleepStart, t.opts.SleepEnd
	if start == end {
		return at
	}
	m := core.MinuteOfDay(at)
	inWindow := false
	if start <= end {
		inWindow = m >= start && m < end
	} else {
		inWindow = m >= start || m < end
	}
	if !inWindow {
		return at
	}
	y, mo, d := at.Date()
	windowEnd := time.Date(y, mo, d, end/60, end%60, 0, 0, at.Location())
	if windowEnd.Before(at) {
		windowEnd = windowEnd.Add(24 * time.Hour)
	}
	return windowEnd
}

// Active returns copies of all active concerns ordered by next check time.
func (t *Tracker) Active() []core.Concern {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []core.Concern
	for _, c := range t.concerns {
		if c.Status == core.ConcernActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextCheckAt.Before(out[j].NextCheckAt) })
	return out
}

// Get returns a copy of a concern by ID.
func (t *Tracker) Get(id string) (core.Concern, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.concerns[id]
	if !ok {
		return core.Concern{}, false
	}
	return *c, true
}

// Snapshot returns copies of every record, including resolved and abandoned
// ones, for state persistence.
func (t *Tracker) Snapshot() []core.Concern {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.Concern, 0, len(t.concerns))
	for _, c := range t.concerns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore replaces all records from a persisted snapshot.
func (t *Tracker) Restore(concerns []core.Concern) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.concerns = make(map[string]*core.Concern, len(concerns))
	for _, c := range concerns {
		cp := c
		t.concerns[c.ID] = &cp
	}
}
