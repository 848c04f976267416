package testutil

import (
	"fmt"
	"time"

	"github.com/mindloop-ai/mindloop/core"
)

// EventBuilder constructs core.Event values with sensible defaults for tests.
type EventBuilder struct {
	ev core.Event
}

// NewEvent starts a builder for a scheduled-check event at the given priority.
func NewEvent(priority int) *EventBuilder {
	return &EventBuilder{ev: core.Event{
		ID:        core.NewID(),
		Type:      core.EventScheduledCheck,
		Priority:  priority,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SourceID:  "test-source",
	}}
}

// Type sets the event type.
func (b *EventBuilder) Type(t core.EventType) *EventBuilder {
	b.ev.Type = t
	return b
}

// Payload sets the payload text.
func (b *EventBuilder) Payload(p string) *EventBuilder {
	b.ev.Payload = p
	return b
}

// Source sets the source identity the budget draw hashes over.
func (b *EventBuilder) Source(id string) *EventBuilder {
	b.ev.SourceID = id
	return b
}

// CreatedAt sets the creation timestamp.
func (b *EventBuilder) CreatedAt(t time.Time) *EventBuilder {
	b.ev.CreatedAt = t
	return b
}

// Meta adds one metadata entry.
func (b *EventBuilder) Meta(k, v string) *EventBuilder {
	if b.ev.Metadata == nil {
		b.ev.Metadata = map[string]string{}
	}
	b.ev.Metadata[k] = v
	return b
}

// Build returns the constructed event.
func (b *EventBuilder) Build() core.Event { return b.ev }

// Events builds one event per priority, with creation times spaced one second
// apart in argument order so FIFO tie-breaks are observable.
func Events(priorities ...int) []core.Event {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]core.Event, len(priorities))
	for i, p := range priorities {
		out[i] = NewEvent(p).
			Source(fmt.Sprintf("src-%d", i)).
			CreatedAt(base.Add(time.Duration(i) * time.Second)).
			Build()
	}
	return out
}

// NewConcern constructs an unregistered concern for the given owner, type and
// urgency. The tracker fills in ID, timestamps and status on Register.
func NewConcern(owner string, typ core.ConcernType, u core.Urgency) core.Concern {
	return core.Concern{
		Type:        typ,
		Description: fmt.Sprintf("test %s concern", typ),
		Severity:    0.5,
		Urgency:     u,
		OwnerID:     owner,
	}
}
