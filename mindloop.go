// Package mindloop provides a high-level façade over the dispatcher engine
// and its services (awareness, routine, budget, concerns, state & logging),
// enabling construction of long-lived conversational agent processes
// ("Minds") that appear continuously active without a model call on every
// tick. Most applications interact with this package by:
//  1. Creating a Mind via New() (optionally overriding default in-memory services)
//  2. Starting the loop with Run(ctx)
//  3. Feeding stimuli through Enqueue / Say and inspecting Status
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable state store, a
// real model provider and a structured logger.
package mindloop

import (
	"context"
	"time"

	"github.com/mindloop-ai/mindloop/awareness"
	"github.com/mindloop-ai/mindloop/budget"
	"github.com/mindloop-ai/mindloop/concern"
	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/engine"
	"github.com/mindloop-ai/mindloop/handler"
	"github.com/mindloop-ai/mindloop/logging"
	"github.com/mindloop-ai/mindloop/model"
	"github.com/mindloop-ai/mindloop/routine"
)

// Options configures a Mind instance.
type Options struct {
	// ID names the Mind, used as default owner for concerns and in logs.
	ID string

	// EngineConfig tunes the dispatcher loop (drain cap, timeouts,
	// snapshot interval).
	EngineConfig engine.Config

	// Profiles overrides the awareness level parameters.
	Profiles core.AwarenessProfiles

	// Schedule overrides the default daily routine.
	Schedule []core.RoutineBlock

	// CallsLimit / TokensLimit are daily budget caps. Zero keeps defaults.
	CallsLimit  int
	TokensLimit int

	// SleepStart/SleepEnd delimit the owner's sleep window in minutes since
	// midnight. Negative values keep the default 22:00-06:00 window.
	SleepStart int
	SleepEnd   int

	// ConcernMaxUnacked bounds unacknowledged follow-ups before a concern
	// is abandoned. Zero keeps the default.
	ConcernMaxUnacked int

	// ConcernMaxAge bounds concern age before abandonment. Zero keeps the
	// default.
	ConcernMaxAge time.Duration

	// Rules overrides the free-path rule table.
	Rules []handler.Rule

	// Model backs the expensive path (defaults to the deterministic mock).
	Model model.Model

	// Stores (default to in-memory implementations if not provided).
	MemoryStore core.MemoryStore
	StateStore  core.StateStore

	// Clock defaults to the system clock.
	Clock core.Clock

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Mind is one long-lived agent instance owning its own scheduler state.
// Multiple Minds run independently and share no mutable state.
type Mind struct {
	id     string
	engine *engine.Engine
}

// New creates a Mind with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*Mind, error) {
	opts := Options{
		ID:           "mind",
		EngineConfig: engine.DefaultConfig,
		Clock:        core.SystemClock{},
		Logger:       logging.NoOpLogger{},
		SleepStart:   -1,
		SleepEnd:     -1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var machine *awareness.Machine
	if opts.Profiles != nil {
		if err := opts.Profiles.Validate(); err != nil {
			return nil, err
		}
		machine = awareness.New(func(o *awareness.Options) {
			o.Profiles = opts.Profiles
			o.Logger = opts.Logger
		})
	}

	var table *routine.Table
	if opts.Schedule != nil {
		t, err := routine.New(opts.Schedule)
		if err != nil {
			return nil, err
		}
		table = t
	}

	var governor *budget.Governor
	if opts.CallsLimit > 0 || opts.TokensLimit > 0 {
		governor = budget.New(opts.CallsLimit, opts.TokensLimit, func(o *budget.Options) {
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	}

	var tracker *concern.Tracker
	if (opts.SleepStart >= 0 && opts.SleepEnd >= 0) || opts.ConcernMaxUnacked > 0 || opts.ConcernMaxAge > 0 {
		tracker = concern.New(func(o *concern.Options) {
			if opts.SleepStart >= 0 && opts.SleepEnd >= 0 {
				o.SleepStart = opts.SleepStart
				o.SleepEnd = opts.SleepEnd
			}
			if opts.ConcernMaxUnacked > 0 {
				o.MaxUnackedFollowUps = opts.ConcernMaxUnacked
			}
			if opts.ConcernMaxAge > 0 {
				o.MaxAge = opts.ConcernMaxAge
			}
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	}

	eng, err := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Machine = machine
		o.Table = table
		o.Governor = governor
		o.Tracker = tracker
		o.Rules = opts.Rules
		o.Model = opts.Model
		o.MemoryStore = opts.MemoryStore
		o.StateStore = opts.StateStore
		o.Clock = opts.Clock
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	return &Mind{id: opts.ID, engine: eng}, nil
}

// ID returns the Mind's identifier.
func (m *Mind) ID() string { return m.id }

// Run drives the dispatcher loop until ctx is canceled, then shuts down
// gracefully: in-flight handlers finish or time out and undispatched events
// are persisted for the next start.
func (m *Mind) Run(ctx context.Context) error { return m.engine.Run(ctx) }

// Enqueue submits an external stimulus. Thread-safe and non-blocking.
func (m *Mind) Enqueue(ev core.Event) error { return m.engine.Enqueue(ev) }

// Say is a convenience wrapper submitting direct user input, which lands in
// the reserved priority band.
func (m *Mind) Say(text string) error {
	return m.engine.Enqueue(core.NewUserMessageEvent(m.id, text))
}

// RegisterConcern hands a detected issue to the concern tracker.
func (m *Mind) RegisterConcern(c core.Concern) (core.Concern, error) {
	if c.OwnerID == "" {
		c.OwnerID = m.id
	}
	return m.engine.RegisterConcern(c)
}

// Status returns a read-only introspection snapshot for CLI/API layers.
func (m *Mind) Status() core.Status { return m.engine.Status() }
