package core

import (
	"fmt"
	"time"
)

// ConcernType classifies what kind of open issue a concern tracks.
type ConcernType string

const (
	// ConcernHealth tracks illness, symptoms and medical appointments.
	ConcernHealth ConcernType = "health"
	// ConcernEmotion tracks emotional wellbeing topics.
	ConcernEmotion ConcernType = "emotion"
	// ConcernTask tracks outstanding tasks and deadlines.
	ConcernTask ConcernType = "task"
	// ConcernExam tracks exam or interview preparation.
	ConcernExam ConcernType = "exam"
)

// Urgency orders how aggressively a concern is followed up. Higher values
// are more urgent.
type Urgency int

const (
	// UrgencyLow concerns are revisited every few days.
	UrgencyLow Urgency = iota
	// UrgencyNormal is the default daily cadence.
	UrgencyNormal
	// UrgencyHigh concerns are revisited twice a day.
	UrgencyHigh
	// UrgencyCritical concerns are revisited within hours and escalate the
	// awareness state machine.
	UrgencyCritical
)

// String returns the lower-case urgency name.
func (u Urgency) String() string {
	switch u {
	case UrgencyCritical:
		return "critical"
	case UrgencyHigh:
		return "high"
	case UrgencyNormal:
		return "normal"
	case UrgencyLow:
		return "low"
	default:
		return fmt.Sprintf("Urgency(%d)", int(u))
	}
}

// ParseUrgency maps an urgency name to its value.
func ParseUrgency(s string) (Urgency, error) {
	switch s {
	case "critical":
		return UrgencyCritical, nil
	case "high":
		return UrgencyHigh, nil
	case "normal":
		return UrgencyNormal, nil
	case "low":
		return UrgencyLow, nil
	}
	return UrgencyNormal, fmt.Errorf("unknown urgency %q", s)
}

// BaseInterval is the urgency-dependent delay before the next follow-up
// check.
func (u Urgency) BaseInterval() time.Duration {
	switch u {
	case UrgencyCritical:
		return 6 * time.Hour
	case UrgencyHigh:
		return 12 * time.Hour
	case UrgencyLow:
		return 72 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// FollowUpPriority is the event priority assigned to a synthesized follow-up
// for this urgency.
func (u Urgency) FollowUpPriority() int {
	switch u {
	case UrgencyCritical:
		return 9
	case UrgencyHigh:
		return 7
	case UrgencyLow:
		return 3
	default:
		return 5
	}
}

// ConcernStatus is the lifecycle state of a concern.
type ConcernStatus string

const (
	// ConcernActive concerns are eligible for follow-up scheduling.
	ConcernActive ConcernStatus = "active"
	// ConcernResolved concerns were explicitly closed.
	ConcernResolved ConcernStatus = "resolved"
	// ConcernAbandoned concerns aged out or went unacknowledged too long.
	// Soft-deleted, never physically removed by the tracker.
	ConcernAbandoned ConcernStatus = "abandoned"
)

// Concern is a tracked, potentially-recurring topic requiring future
// follow-up. Only the concern tracker mutates concerns after registration.
type Concern struct {
	ID          string        `json:"concern_id"`
	Type        ConcernType   `json:"type"`
	Description string        `json:"description,omitempty"`
	Severity    float64       `json:"severity"`
	Urgency     Urgency       `json:"urgency"`
	OwnerID     string        `json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	NextCheckAt time.Time     `json:"next_check_at"`
	Status      ConcernStatus `json:"status"`

	// Checks counts follow-up scans performed on this concern; it drives the
	// exponential back-off once a concern stays unresolved.
	Checks int `json:"checks"`
	// UnackedFollowUps counts follow-ups since the owner last engaged with
	// the topic; past the configured bound the concern is abandoned.
	UnackedFollowUps int `json:"unacked_follow_ups"`
}

// IsActive reports whether the concern still participates in scheduling.
func (c Concern) IsActive() bool { return c.Status == ConcernActive }
