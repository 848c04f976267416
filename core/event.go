package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes the origin and intent of a stimulus.
type EventType string

const (
	// EventUserMessage is direct conversational input from the Mind's owner.
	EventUserMessage EventType = "user_message"
	// EventScheduledCheck is a routine-driven internal check.
	EventScheduledCheck EventType = "scheduled_check"
	// EventFollowUp is synthesized by the concern tracker when a concern
	// becomes due.
	EventFollowUp EventType = "follow_up"
	// EventInternalTimer is an internal timer expiry.
	EventInternalTimer EventType = "internal_timer"
	// EventAcknowledgment is emitted by handlers to confirm receipt of a
	// stimulus that produced no substantive reply.
	EventAcknowledgment EventType = "acknowledgment"
)

// Priority bounds. PriorityUserMin marks the start of the band reserved for
// direct user input; events at or above it are always eligible for the
// expensive path regardless of budget state.
const (
	PriorityMin     = 1
	PriorityMax     = 10
	PriorityUserMin = 8
)

// Event is the unit of work flowing through the dispatcher. After enqueueing
// it is treated as immutable and consumed exactly once.
type Event struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Payload     string            `json:"payload"`
	Priority    int               `json:"priority"`
	RequiresLLM bool              `json:"requires_llm_hint"`
	CreatedAt   time.Time         `json:"created_at"`
	SourceID    string            `json:"source_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates an event with a fresh ID and UTC timestamp. Priority is
// clamped into [PriorityMin, PriorityMax].
func NewEvent(typ EventType, sourceID, payload string, priority int) Event {
	return Event{
		ID:        NewID(),
		Type:      typ,
		Payload:   payload,
		Priority:  ClampPriority(priority),
		CreatedAt: time.Now().UTC(),
		SourceID:  sourceID,
	}
}

// NewUserMessageEvent wraps direct user input. User input lands in the
// reserved 8-10 priority band and hints that the expensive path is wanted.
func NewUserMessageEvent(sourceID, text string) Event {
	e := NewEvent(EventUserMessage, sourceID, text, 9)
	e.RequiresLLM = true
	return e
}

// NewAcknowledgmentEvent records a low-priority confirmation emitted by a
// handler after processing another event.
func NewAcknowledgmentEvent(sourceID, text string) Event {
	return NewEvent(EventAcknowledgment, sourceID, text, 2)
}

// ClampPriority forces p into the valid priority range.
func ClampPriority(p int) int {
	if p < PriorityMin {
		return PriorityMin
	}
	if p > PriorityMax {
		return PriorityMax
	}
	return p
}

// IsUserInput reports whether the event sits in the reserved user band.
func (e Event) IsUserInput() bool { return e.Priority >= PriorityUserMin }

// NewID generates a unique identifier for events.
func NewID() string { return uuid.NewString() }
