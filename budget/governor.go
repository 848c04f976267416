package budget

import (
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/logging"
)

// DefaultTokenEstimate is the optimistic per-call token charge applied
// before dispatch; corrected post-hoc when the actual call differs
// materially.
const DefaultTokenEstimate = 800

// reconcileThreshold is the relative divergence past which actual usage
// replaces the optimistic estimate.
const reconcileThreshold = 0.2

// Options configures a Governor.
type Options struct {
	// TokenEstimate is charged per call at decision time.
	TokenEstimate int
	// Clock supplies time for the scheduled daily reset.
	Clock core.Clock
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Governor gates access to the expensive model path. All counter mutations
// happen inside a single critical section per event so two concurrently
// dispatched events cannot both pass a check only one should have passed.
type Governor struct {
	mu            sync.Mutex
	counter       core.BudgetCounter
	tokenEstimate int
	clock         core.Clock
	logger        logging.Logger
}

// New constructs a Governor with daily call and token limits.
func New(callsLimit, tokensLimit int, optFns ...func(o *Options)) *Governor {
	opts := Options{
		TokenEstimate: DefaultTokenEstimate,
		Clock:         core.SystemClock{},
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	g := &Governor{
		tokenEstimate: opts.TokenEstimate,
		clock:         opts.Clock,
		logger:        opts.Logger,
	}
	now := opts.Clock.Now()
	g.counter = core.BudgetCounter{
		CallsLimit:  callsLimit,
		TokensLimit: tokensLimit,
		ResetAt:     nextMidnight(now),
	}
	return g
}

// ShouldUseLLM decides whether the event may take the expensive path at the
// given awareness level. On true the counters are already incremented
// (optimistic accounting).
func (g *Governor) ShouldUseLLM(ev core.Event, level core.AwarenessLevel, profile core.AwarenessProfile) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.maybeResetLocked(g.clock.Now())

	// Reserved user band: hard override, never refused. Counters still move
	// so the overage is visible.
	if ev.Priority >= core.PriorityUserMin {
		g.consumeLocked()
		if g.counter.CallsUsed > g.counter.CallsLimit {
			g.logger.Warn("over budget: reserved-priority event forced LLM path",
				"event_id", ev.ID, "priority", ev.Priority, "calls_used", g.counter.CallsUsed, "calls_limit", g.counter.CallsLimit)
		}
		return true
	}

	if level == core.Dormant {
		return false
	}
	if g.counter.Exhausted() {
		return false
	}
	if Draw(ev) >= profile.LLMCallProbability {
		return false
	}
	g.consumeLocked()
	return true
}

// Draw maps the event's stable identity to [0,1). Identical replayed events
// draw the same value, keeping tests and replays deterministic. The hash
// covers (source_id, created_at); seed derivation beyond determinism is
// intentionally unspecified upstream.
func Draw(ev core.Event) float64 {
	h := fnv.New64a()
	h.Write([]byte(ev.SourceID))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(ev.CreatedAt.Unix(), 10)))
	return float64(h.Sum64()%1_000_000) / 1_000_000
}

// ReconcileUsage corrects the optimistic token charge with the actual spend
// of a completed call. Corrections below the material-divergence threshold
// are ignored.
func (g *Governor) ReconcileUsage(actualTokens int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	diff := actualTokens - g.tokenEstimate
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) <= reconcileThreshold*float64(g.tokenEstimate) {
		return
	}
	g.counter.TokensUsed += actualTokens - g.tokenEstimate
	if g.counter.TokensUsed < 0 {
		g.counter.TokensUsed = 0
	}
}

// Counter returns a copy of the current counter state.
func (g *Governor) Counter() core.BudgetCounter {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maybeResetLocked(g.clock.Now())
	return g.counter
}

// Restore replaces counter state from a persisted snapshot, keeping the
// configured limits when the snapshot carries zero values.
func (g *Governor) Restore(c core.BudgetCounter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c.CallsLimit == 0 {
		c.CallsLimit = g.counter.CallsLimit
	}
	if c.TokensLimit == 0 {
		c.TokensLimit = g.counter.TokensLimit
	}
	if c.ResetAt.IsZero() {
		c.ResetAt = g.counter.ResetAt
	}
	g.counter = c
	g.maybeResetLocked(g.clock.Now())
}

func (g *Governor) consumeLocked() {
	g.counter.CallsUsed++
	g.counter.TokensUsed += g.tokenEstimate
}

func (g *Governor) maybeResetLocked(now time.Time) {
	if now.Before(g.counter.ResetAt) {
		return
	}
	g.logger.Info("budget reset",
		"calls_used", g.counter.CallsUsed, "tokens_used", g.counter.TokensUsed)
	g.counter.CallsUsed = 0
	g.counter.TokensUsed = 0
	reset := g.counter.ResetAt
	if reset.IsZero() {
		reset = nextMidnight(now)
	}
	for !reset.After(now) {
		reset = reset.Add(24 * time.Hour)
	}
	g.counter.ResetAt = reset
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
}
