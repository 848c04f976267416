package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/logging"
)

// Rule pairs a pure predicate over the event with the action to run when it
// matches. Rules are evaluated in order; the first match wins.
type Rule struct {
	Name      string
	Predicate func(ev core.Event) bool
	Action    func(ctx context.Context, ev core.Event) (*core.HandlerResult, error)
}

// PayloadContains builds a predicate matching any of the given phrases
// case-insensitively against the event payload.
func PayloadContains(phrases ...string) func(core.Event) bool {
	return func(ev core.Event) bool {
		payload := strings.ToLower(ev.Payload)
		for _, p := range phrases {
			if strings.Contains(payload, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}
}

// RuleEngine is the zero-cost handler path. A generic acknowledgment backstop
// guarantees every event produces a result; user-visible failure degrades to
// a fallback acknowledgment, never silence.
type RuleEngine struct {
	rules  []Rule
	logger logging.Logger
}

// RuleEngineOptions configures a RuleEngine.
type RuleEngineOptions struct {
	Logger logging.Logger
}

// NewRuleEngine builds an engine over the given ordered rules.
func NewRuleEngine(rules []Rule, optFns ...func(o *RuleEngineOptions)) *RuleEngine {
	opts := RuleEngineOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RuleEngine{rules: rules, logger: opts.Logger}
}

// Handle evaluates rules in order and runs the first matching action. An
// action error marks the event failed; no match falls through to the generic
// acknowledgment.
func (e *RuleEngine) Handle(ctx context.Context, ev core.Event) (*core.HandlerResult, error) {
	for _, r := range e.rules {
		if r.Predicate == nil || !r.Predicate(ev) {
			continue
		}
		e.logger.Debug("rule matched", "rule", r.Name, "event_id", ev.ID)
		res, err := r.Action(ctx, ev)
		if err != nil {
			return &core.HandlerResult{Status: core.StatusFailed}, &core.HandlerError{EventID: ev.ID, Err: err}
		}
		return res, nil
	}
	return FallbackResult(ev), nil
}

// FallbackResult is the generic degraded acknowledgment used when no rule
// matches or the expensive path failed. Only direct user input earns an
// acknowledgment event; internal stimuli must not feed the queue from the
// fallback path or a single unmatched event would echo forever.
func FallbackResult(ev core.Event) *core.HandlerResult {
	reply := "Noted."
	res := &core.HandlerResult{
		Status:   core.StatusHandled,
		Reply:    reply,
		Degraded: true,
	}
	if ev.Type == core.EventUserMessage {
		res.Reply = "Got it - I'm thinking about this and will come back to you."
		res.Events = []core.Event{core.NewAcknowledgmentEvent(ev.SourceID, res.Reply)}
	}
	return res
}

// DefaultRules is the built-in rule table. Typed synthetic events are routed
// first so the Mind never mines its own follow-up or acknowledgment text for
// concern keywords; then resolution signals (so "my headache is gone" closes
// instead of re-opening), then concern detection, then engagement phrasing.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "acknowledgment",
			Predicate: func(ev core.Event) bool { return ev.Type == core.EventAcknowledgment },
			Action: func(_ context.Context, _ core.Event) (*core.HandlerResult, error) {
				return &core.HandlerResult{Status: core.StatusHandled}, nil
			},
		},
		{
			Name:      "follow-up",
			Predicate: func(ev core.Event) bool { return ev.Type == core.EventFollowUp },
			Action: func(_ context.Context, ev core.Event) (*core.HandlerResult, error) {
				return &core.HandlerResult{
					Status: core.StatusHandled,
					Reply:  fmt.Sprintf("Checking in: how is the %s situation going?", ev.Metadata["type"]),
				}, nil
			},
		},
		{
			Name:      "resolution",
			Predicate: func(ev core.Event) bool { return len(DetectResolutions(ev)) > 0 },
			Action: func(_ context.Context, ev core.Event) (*core.HandlerResult, error) {
				refs := DetectResolutions(ev)
				return &core.HandlerResult{
					Status:      core.StatusHandled,
					Reply:       "That's great to hear. I'll stop checking in on that.",
					Resolutions: refs,
				}, nil
			},
		},
		{
			Name:      "concern-detection",
			Predicate: func(ev core.Event) bool { return len(DetectConcerns(ev)) > 0 },
			Action: func(_ context.Context, ev core.Event) (*core.HandlerResult, error) {
				concerns := DetectConcerns(ev)
				return &core.HandlerResult{
					Status:   core.StatusHandled,
					Reply:    fmt.Sprintf("Thanks for telling me - I'll check in on this %s later.", concerns[0].Type),
					Concerns: concerns,
				}, nil
			},
		},
		{
			Name:      "still-working",
			Predicate: PayloadContains("still ", "not yet", "working on it", "haven't"),
			Action: func(_ context.Context, ev core.Event) (*core.HandlerResult, error) {
				return &core.HandlerResult{
					Status:       core.StatusHandled,
					Reply:        "Understood, I'll give it some more time before asking again.",
					Acknowledged: ownerRefs(ev),
				}, nil
			},
		},
	}
}

// ownerRefs builds concern references for acknowledgment from event
// metadata, falling back to every type detected in the payload.
func ownerRefs(ev core.Event) []core.ConcernRef {
	if owner, ok := ev.Metadata["owner_id"]; ok {
		if typ, ok := ev.Metadata["type"]; ok {
			return []core.ConcernRef{{OwnerID: owner, Type: core.ConcernType(typ)}}
		}
	}
	var refs []core.ConcernRef
	for _, typ := range []core.ConcernType{core.ConcernHealth, core.ConcernEmotion, core.ConcernTask, core.ConcernExam} {
		refs = append(refs, core.ConcernRef{OwnerID: ev.SourceID, Type: typ})
	}
	return refs
}
