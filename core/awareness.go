package core

import (
	"fmt"
	"time"
)

// AwarenessLevel is the ordered operating mode of a Mind. Higher levels tick
// faster and are more willing to spend model calls.
type AwarenessLevel int

const (
	// Dormant is the sleeping state: slow ticks, no model calls except for
	// reserved-priority user input.
	Dormant AwarenessLevel = iota
	// Passive is the idle baseline and the initial state.
	Passive
	// Alert is attentive background processing.
	Alert
	// Focused is active engagement with a task or conversation.
	Focused
	// Deep is full engagement with maximum model propensity.
	Deep
)

// String returns the canonical upper-case level name.
func (l AwarenessLevel) String() string {
	switch l {
	case Dormant:
		return "DORMANT"
	case Passive:
		return "PASSIVE"
	case Alert:
		return "ALERT"
	case Focused:
		return "FOCUSED"
	case Deep:
		return "DEEP"
	default:
		return fmt.Sprintf("AwarenessLevel(%d)", int(l))
	}
}

// ParseAwarenessLevel maps a canonical level name to its value.
func ParseAwarenessLevel(s string) (AwarenessLevel, error) {
	for l := Dormant; l <= Deep; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return Passive, fmt.Errorf("unknown awareness level %q", s)
}

// ModelTier selects how expensive a model a handler may use.
type ModelTier int

const (
	// TierNone forbids model use entirely.
	TierNone ModelTier = iota
	// TierLight allows only the cheapest model.
	TierLight
	// TierStandard allows the workhorse model.
	TierStandard
	// TierDeep allows the most capable (and most expensive) model.
	TierDeep
)

// String returns the tier name.
func (t ModelTier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierLight:
		return "light"
	case TierStandard:
		return "standard"
	case TierDeep:
		return "deep"
	default:
		return fmt.Sprintf("ModelTier(%d)", int(t))
	}
}

// AwarenessProfile describes the operating parameters of one level.
type AwarenessProfile struct {
	TickInterval       time.Duration `json:"tick_interval"`
	LLMCallProbability float64       `json:"llm_call_probability"`
	MaxModelTier       ModelTier     `json:"max_model_tier"`
}

// AwarenessProfiles maps every level to its profile.
type AwarenessProfiles map[AwarenessLevel]AwarenessProfile

// DefaultProfiles returns the built-in level parameters.
func DefaultProfiles() AwarenessProfiles {
	return AwarenessProfiles{
		Dormant: {TickInterval: 5 * time.Minute, LLMCallProbability: 0, MaxModelTier: TierNone},
		Passive: {TickInterval: time.Minute, LLMCallProbability: 0.05, MaxModelTier: TierLight},
		Alert:   {TickInterval: 15 * time.Second, LLMCallProbability: 0.25, MaxModelTier: TierStandard},
		Focused: {TickInterval: 5 * time.Second, LLMCallProbability: 0.6, MaxModelTier: TierStandard},
		Deep:    {TickInterval: 2 * time.Second, LLMCallProbability: 0.9, MaxModelTier: TierDeep},
	}
}

// Validate checks that every level is present, probabilities are within
// [0,1], and a higher level never ticks slower than a lower one.
func (p AwarenessProfiles) Validate() error {
	prev := time.Duration(-1)
	for l := Dormant; l <= Deep; l++ {
		prof, ok := p[l]
		if !ok {
			return fmt.Errorf("missing profile for level %s", l)
		}
		if prof.TickInterval <= 0 {
			return fmt.Errorf("level %s: tick interval must be positive", l)
		}
		if prof.LLMCallProbability < 0 || prof.LLMCallProbability > 1 {
			return fmt.Errorf("level %s: llm call probability %f outside [0,1]", l, prof.LLMCallProbability)
		}
		if prev >= 0 && prof.TickInterval > prev {
			return fmt.Errorf("level %s: tick interval %s longer than lower level's %s", l, prof.TickInterval, prev)
		}
		prev = prof.TickInterval
	}
	return nil
}
