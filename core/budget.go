package core

import "time"

// BudgetCounter tracks per-day LLM spend against configured limits. Reset is
// a scheduled transition at ResetAt, not a continuous decay.
type BudgetCounter struct {
	CallsUsed   int       `json:"calls_used"`
	TokensUsed  int       `json:"tokens_used"`
	CallsLimit  int       `json:"calls_limit"`
	TokensLimit int       `json:"tokens_limit"`
	ResetAt     time.Time `json:"reset_at"`
}

// CallsRemaining returns the calls left before the soft limit. Reserved
// priority events may push usage past zero, so the result can be negative.
func (b BudgetCounter) CallsRemaining() int { return b.CallsLimit - b.CallsUsed }

// Exhausted reports whether the call budget is spent.
func (b BudgetCounter) Exhausted() bool { return b.CallsUsed >= b.CallsLimit }

// Status is a read-only introspection snapshot exposed to CLI/API layers.
type Status struct {
	AwarenessLevel  AwarenessLevel `json:"awareness_level"`
	QueueDepth      int            `json:"queue_depth"`
	BudgetRemaining int            `json:"budget_remaining"`
	ActiveConcerns  int            `json:"active_concerns"`
	LastTickAt      time.Time      `json:"last_tick_at"`
}

// Snapshot is the whole-state blob round-tripped through a StateStore for
// crash recovery. Minute precision on timestamps is sufficient; RFC 3339
// encoding preserves well beyond that.
type Snapshot struct {
	AwarenessLevel AwarenessLevel `json:"awareness_state"`
	LastTickAt     time.Time      `json:"last_tick_at"`
	Budget         BudgetCounter  `json:"budget_counter"`
	PendingEvents  []Event        `json:"pending_events"`
	Concerns       []Concern      `json:"concerns"`
	SavedAt        time.Time      `json:"saved_at"`
}
