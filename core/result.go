package core

// HandlerStatus is the typed outcome of processing one event. The dispatcher
// never relies on hidden callback chains; every event terminates in exactly
// one of these states.
type HandlerStatus int

const (
	// StatusHandled means the event was fully processed.
	StatusHandled HandlerStatus = iota
	// StatusFailed means the handler errored; the event is marked failed and
	// the loop continues.
	StatusFailed
	// StatusDeferred means the handler declined the event for now; it may be
	// re-enqueued by the emitting side.
	StatusDeferred
)

// String returns the status name.
func (s HandlerStatus) String() string {
	switch s {
	case StatusHandled:
		return "handled"
	case StatusFailed:
		return "failed"
	case StatusDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// HandlerResult carries everything a handler produced for one event: a reply
// (possibly a degraded fallback), newly detected concerns, resolution signals
// and any follow-on events to enqueue.
type HandlerResult struct {
	Status HandlerStatus
	Reply  string
	// Degraded marks a fallback reply produced after an expensive-path
	// failure.
	Degraded bool
	// TokensUsed reports actual model spend for post-hoc budget correction.
	// Zero for rule-based handling.
	TokensUsed int
	// Concerns are new open issues detected in the event content.
	Concerns []Concern
	// Resolutions name (owner, type) pairs the content indicates are closed.
	Resolutions []ConcernRef
	// Acknowledged names (owner, type) pairs the owner engaged with without
	// resolving.
	Acknowledged []ConcernRef
	// Events are follow-on events to enqueue (e.g. acknowledgments).
	Events []Event
}

// ConcernRef identifies a concern by its owner and type, the resolution key
// used by conversation turns.
type ConcernRef struct {
	OwnerID string      `json:"owner_id"`
	Type    ConcernType `json:"type"`
}
