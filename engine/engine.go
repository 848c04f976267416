package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mindloop-ai/mindloop/awareness"
	"github.com/mindloop-ai/mindloop/budget"
	"github.com/mindloop-ai/mindloop/concern"
	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/handler"
	"github.com/mindloop-ai/mindloop/logging"
	"github.com/mindloop-ai/mindloop/memory"
	"github.com/mindloop-ai/mindloop/model"
	"github.com/mindloop-ai/mindloop/queue"
	"github.com/mindloop-ai/mindloop/routine"
	"github.com/mindloop-ai/mindloop/state"
)

// Config defines tuning parameters for the dispatcher loop.
type Config struct {
	// DrainPerTick caps how many events one tick may process, bounding tick
	// latency. Zero means the default.
	DrainPerTick int

	// LLMTimeout bounds one expensive-path handler invocation.
	LLMTimeout time.Duration

	// SnapshotInterval is how often state is persisted for crash recovery.
	SnapshotInterval time.Duration
}

// DefaultConfig provides production-ready defaults.
var DefaultConfig = Config{
	DrainPerTick:     20,
	LLMTimeout:       handler.DefaultLLMTimeout,
	SnapshotInterval: 300 * time.Second,
}

// Options configures an Engine instance using the functional options
// pattern. All dependencies have in-memory defaults suitable for tests and
// demos.
type Options struct {
	// Config contains operational parameters for loop behavior.
	Config Config

	// Machine is the awareness state machine. Defaults to a fresh machine
	// with built-in profiles.
	Machine *awareness.Machine

	// Table is the routine table. Defaults to the built-in daily schedule.
	Table *routine.Table

	// Governor gates expensive-path access. Defaults to 50 calls / 50k
	// tokens per day.
	Governor *budget.Governor

	// Tracker owns concern records. Defaults to a tracker with the standard
	// sleep window.
	Tracker *concern.Tracker

	// Rules is the ordered rule table for the free path. Defaults to
	// handler.DefaultRules.
	Rules []handler.Rule

	// Model backs the expensive path. Defaults to the deterministic mock.
	Model model.Model

	// MemoryStore enriches expensive-path prompts. Defaults to in-memory.
	MemoryStore core.MemoryStore

	// StateStore persists snapshots. Defaults to in-memory.
	StateStore core.StateStore

	// Clock supplies time. Defaults to the system clock.
	Clock core.Clock

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Engine is the single logical dispatcher loop for one Mind. External
// actors only enqueue events; every other mutation happens on the loop or in
// handler goroutines it supervises.
type Engine struct {
	cfg      Config
	machine  *awareness.Machine
	table    *routine.Table
	governor *budget.Governor
	tracker  *concern.Tracker
	rules    *handler.RuleEngine
	llm      *handler.LLMHandler
	queue    *queue.Queue
	states   core.StateStore
	clock    core.Clock
	logger   logging.Logger

	// wake interrupts the tick timer when reserved-priority input arrives,
	// so a DORMANT Mind does not sit on a slow tick interval with an urgent
	// event queued.
	wake chan struct{}

	// inflight tracks expensive-path handler goroutines so shutdown can let
	// them finish or time out.
	inflight sync.WaitGroup

	// applyMu serializes the post-handler state updates (budget reconcile,
	// concern registration/resolution) into a single critical section per
	// event.
	applyMu sync.Mutex

	mu           sync.Mutex
	lastTickAt   time.Time
	failedEvents int
	lastSnapshot time.Time
}

// New constructs an Engine with optional overrides.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Config: DefaultConfig,
		Clock:  core.SystemClock{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.DrainPerTick <= 0 {
		opts.Config.DrainPerTick = DefaultConfig.DrainPerTick
	}
	if opts.Config.LLMTimeout <= 0 {
		opts.Config.LLMTimeout = DefaultConfig.LLMTimeout
	}
	if opts.Config.SnapshotInterval <= 0 {
		opts.Config.SnapshotInterval = DefaultConfig.SnapshotInterval
	}
	if opts.Machine == nil {
		opts.Machine = awareness.New(func(o *awareness.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Table == nil {
		t, err := routine.New(routine.DefaultSchedule())
		if err != nil {
			return nil, fmt.Errorf("default schedule: %w", err)
		}
		opts.Table = t
	}
	if opts.Governor == nil {
		opts.Governor = budget.New(50, 50_000, func(o *budget.Options) {
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	}
	if opts.Tracker == nil {
		opts.Tracker = concern.New(func(o *concern.Options) {
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	}
	if opts.Rules == nil {
		opts.Rules = handler.DefaultRules()
	}
	if opts.Model == nil {
		opts.Model = model.NewMockModel()
	}
	if opts.MemoryStore == nil {
		opts.MemoryStore = memory.NewInMemoryStore()
	}
	if opts.StateStore == nil {
		opts.StateStore = state.NewInMemoryStore()
	}

	rules := handler.NewRuleEngine(opts.Rules, func(o *handler.RuleEngineOptions) {
		o.Logger = opts.Logger
	})
	llm := handler.NewLLMHandler(opts.Model, rules, func(o *handler.LLMOptions) {
		o.Timeout = opts.Config.LLMTimeout
		o.Memory = opts.MemoryStore
		o.Logger = opts.Logger
	})

	return &Engine{
		cfg:      opts.Config,
		machine:  opts.Machine,
		table:    opts.Table,
		governor: opts.Governor,
		tracker:  opts.Tracker,
		rules:    rules,
		llm:      llm,
		queue:    queue.New(),
		states:   opts.StateStore,
		clock:    opts.Clock,
		logger:   opts.Logger,
		wake:     make(chan struct{}, 1),
	}, nil
}

// Enqueue accepts an external stimulus. Thread-safe, returns immediately,
// never blocks on processing. Reserved-priority input additionally wakes the
// loop so it is not delayed by a slow tick interval.
func (e *Engine) Enqueue(ev core.Event) error {
	if ev.ID == "" {
		ev.ID = core.NewID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = e.clock.Now().UTC()
	}
	ev.Priority = core.ClampPriority(ev.Priority)

	if err := e.queue.Enqueue(ev); err != nil {
		return err
	}
	if ev.IsUserInput() || ev.Metadata["urgency"] == core.UrgencyCritical.String() {
		select {
		case e.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

// RegisterConcern hands a detected issue to the tracker, e.g. from an
// external conversation handler.
func (e *Engine) RegisterConcern(c core.Concern) (core.Concern, error) {
	return e.tracker.Register(c)
}

// Status returns a read-only introspection snapshot.
func (e *Engine) Status() core.Status {
	e.mu.Lock()
	lastTick := e.lastTickAt
	e.mu.Unlock()
	return core.Status{
		AwarenessLevel:  e.machine.Level(),
		QueueDepth:      e.queue.Len(),
		BudgetRemaining: e.governor.Counter().CallsRemaining(),
		ActiveConcerns:  len(e.tracker.Active()),
		LastTickAt:      lastTick,
	}
}

// Run restores persisted state and drives the tick loop until ctx is
// canceled. On shutdown, in-flight expensive-path handlers finish or time
// out, then queued-but-undispatched events are persisted rather than
// dropped.
func (e *Engine) Run(ctx context.Context) error {
	e.restore(ctx)

	timer := time.NewTimer(e.machine.Profile().TickInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return e.shutdown()
		case <-timer.C:
		case <-e.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		e.tick(ctx)
		timer.Reset(e.machine.Profile().TickInterval)
	}
}

// Tick runs a single dispatcher iteration. Exposed for deterministic
// testing and simulation drivers; Run calls it on the interval dictated by
// the current awareness level.
func (e *Engine) Tick(ctx context.Context) { e.tick(ctx) }

func (e *Engine) tick(ctx context.Context) {
	start := e.clock.Now()

	block := e.table.Resolve(start)
	level := e.machine.Reconcile(start, block.TargetAwareness)

	for _, fu := range e.tracker.ScanDue(start) {
		if err := e.queue.Enqueue(fu); err != nil {
			e.logger.Warn("failed to enqueue follow-up", "event_id", fu.ID, "error", err.Error())
		}
	}

	events := e.queue.Drain(e.cfg.DrainPerTick)
	failedBefore := e.failedCount()
	for _, ev := range events {
		e.dispatch(ctx, ev)
	}

	e.maybeSnapshot(ctx, start)

	e.mu.Lock()
	e.lastTickAt = start
	e.mu.Unlock()
	e.logger.Debug("tick completed",
		"awareness", level.String(),
		"routine", block.Name,
		"drained", len(events),
		"failed", e.failedCount()-failedBefore,
		"duration", time.Since(start).String())
}

// dispatch routes one event. Panics and handler errors are absorbed here;
// the loop continues with the next event.
func (e *Engine) dispatch(ctx context.Context, ev core.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.markFailed(ev, fmt.Errorf("panic: %v", r))
		}
	}()

	now := e.clock.Now()
	if ev.IsUserInput() || ev.Metadata["urgency"] == core.UrgencyCritical.String() {
		e.machine.Override(now, ev)
	}

	level := e.machine.Level()
	profile := e.machine.Profile()

	if e.governor.ShouldUseLLM(ev, level, profile) {
		// The handler owns its own timeout, so loop cancellation lets it
		// finish or expire instead of killing it mid-call.
		hctx := context.WithoutCancel(ctx)
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					e.markFailed(ev, fmt.Errorf("panic: %v", r))
				}
			}()
			res, err := e.llm.HandleWithTier(hctx, ev, profile.MaxModelTier)
			e.applyResult(ev, res, err, true)
		}()
		return
	}

	res, err := e.rules.Handle(ctx, ev)
	e.applyResult(ev, res, err, false)
}

// applyResult commits everything a handler produced. Budget reconciliation
// and concern mutations happen under one lock so two concurrently completed
// events cannot interleave their state updates.
func (e *Engine) applyResult(ev core.Event, res *core.HandlerResult, err error, usedLLM bool) {
	if err != nil || res == nil || res.Status == core.StatusFailed {
		if err == nil {
			err = errors.New("handler reported failure")
		}
		e.markFailed(ev, err)
		return
	}

	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	if usedLLM && res.TokensUsed > 0 {
		e.governor.ReconcileUsage(res.TokensUsed)
	}
	for _, c := range res.Concerns {
		if _, rerr := e.tracker.Register(c); rerr != nil {
			e.logger.Warn("concern registration failed", "event_id", ev.ID, "error", rerr.Error())
		}
	}
	for _, ref := range res.Resolutions {
		e.tracker.Resolve(ref.OwnerID, ref.Type)
	}
	for _, ref := range res.Acknowledged {
		e.tracker.Acknowledge(ref.OwnerID, ref.Type)
	}
	for _, out := range res.Events {
		if qerr := e.queue.Enqueue(out); qerr != nil && !errors.Is(qerr, queue.ErrClosed) {
			e.logger.Warn("failed to enqueue handler event", "event_id", out.ID, "error", qerr.Error())
		}
	}
	if res.Reply != "" {
		e.logger.Info("event handled",
			"event_id", ev.ID, "type", string(ev.Type), "expensive", usedLLM, "degraded", res.Degraded)
	}
}

func (e *Engine) markFailed(ev core.Event, err error) {
	e.mu.Lock()
	e.failedEvents++
	e.mu.Unlock()
	herr := &core.HandlerError{EventID: ev.ID, Err: err}
	e.logger.Error("event failed", "event_id", ev.ID, "type", string(ev.Type), "error", herr.Error())
}

func (e *Engine) failedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failedEvents
}

// restore loads persisted state. A missing snapshot starts fresh; a corrupt
// one falls back to a fresh default schedule and logs loudly. Startup never
// crashes here.
func (e *Engine) restore(ctx context.Context) {
	snap, err := e.states.Restore(ctx)
	if err != nil {
		var corrupt *core.CorruptStateError
		switch {
		case errors.Is(err, core.ErrNoSnapshot):
			e.logger.Debug("no persisted state, starting fresh")
		case errors.As(err, &corrupt):
			e.logger.Error("persisted state corrupt, starting from defaults", "error", err.Error())
		default:
			e.logger.Error("state restore failed, starting from defaults", "error", err.Error())
		}
		return
	}

	e.machine.Restore(snap.AwarenessLevel)
	e.governor.Restore(snap.Budget)
	e.tracker.Restore(snap.Concerns)
	for _, ev := range snap.PendingEvents {
		if err := e.queue.Enqueue(ev); err != nil {
			e.logger.Warn("failed to re-enqueue pending event", "event_id", ev.ID, "error", err.Error())
		}
	}
	e.mu.Lock()
	e.lastTickAt = snap.LastTickAt
	e.mu.Unlock()
	e.logger.Info("state restored",
		"awareness", snap.AwarenessLevel.String(),
		"pending_events", len(snap.PendingEvents),
		"concerns", len(snap.Concerns))
}

func (e *Engine) maybeSnapshot(ctx context.Context, now time.Time) {
	e.mu.Lock()
	due := e.lastSnapshot.IsZero() || now.Sub(e.lastSnapshot) >= e.cfg.SnapshotInterval
	if due {
		e.lastSnapshot = now
	}
	e.mu.Unlock()
	if !due {
		return
	}
	e.persist(ctx, now)
}

func (e *Engine) persist(ctx context.Context, now time.Time) {
	e.mu.Lock()
	lastTick := e.lastTickAt
	e.mu.Unlock()
	snap := &core.Snapshot{
		AwarenessLevel: e.machine.Level(),
		LastTickAt:     lastTick,
		Budget:         e.governor.Counter(),
		PendingEvents:  e.queue.Pending(),
		Concerns:       e.tracker.Snapshot(),
		SavedAt:        now,
	}
	if err := e.states.Persist(ctx, snap); err != nil {
		e.logger.Error("snapshot persist failed", "error", err.Error())
	}
}

// shutdown closes the queue to new work, waits for in-flight handlers
// (each bounded by the configured timeout) and persists the final snapshot
// so undispatched events resume after restart.
func (e *Engine) shutdown() error {
	e.queue.Close()
	e.inflight.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e.persist(ctx, e.clock.Now())
	e.logger.Info("dispatcher stopped", "queue_depth", e.queue.Len())
	return nil
}
