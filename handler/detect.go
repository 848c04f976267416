package handler

import (
	"strings"

	"github.com/mindloop-ai/mindloop/core"
)

// concernSignal maps a keyword class to the concern it opens.
type concernSignal struct {
	typ      core.ConcernType
	urgency  core.Urgency
	severity float64
	keywords []string
}

// Detection tables are evaluated top to bottom; the critical health class
// sits first so "chest pain" never downgrades to a plain health concern.
var concernSignals = []concernSignal{
	{core.ConcernHealth, core.UrgencyCritical, 0.95, []string{"chest pain", "can't breathe", "cannot breathe", "emergency", "passing out"}},
	{core.ConcernHealth, core.UrgencyHigh, 0.7, []string{"sick", "fever", "headache", "doctor", "in pain", "feel ill", "migraine", "injured"}},
	{core.ConcernExam, core.UrgencyHigh, 0.6, []string{"exam", "interview", "test tomorrow", "quiz", "finals"}},
	{core.ConcernTask, core.UrgencyNormal, 0.5, []string{"deadline", "due ", "submit", "overdue", "need to finish"}},
	{core.ConcernEmotion, core.UrgencyNormal, 0.5, []string{"stressed", "anxious", "worried", "sad", "lonely", "overwhelmed", "can't sleep"}},
}

// resolutionSignals map phrases in later turns to the concern types they
// close for the same owner.
var resolutionSignals = map[core.ConcernType][]string{
	core.ConcernHealth:  {"feeling better", "recovered", "all better", "headache is gone", "fever broke"},
	core.ConcernExam:    {"passed the exam", "exam went", "interview went", "aced"},
	core.ConcernTask:    {"finished", "submitted", "done with", "handed in", "completed"},
	core.ConcernEmotion: {"feeling better", "much calmer", "less stressed", "feeling good"},
}

// DetectConcerns scans an event payload for open-issue signals and returns
// concern records owned by the event source. At most one concern per type is
// emitted; the most urgent class wins.
func DetectConcerns(ev core.Event) []core.Concern {
	payload := strings.ToLower(ev.Payload)
	seen := make(map[core.ConcernType]bool)
	var out []core.Concern
	for _, sig := range concernSignals {
		if seen[sig.typ] {
			continue
		}
		for _, kw := range sig.keywords {
			if strings.Contains(payload, kw) {
				out = append(out, core.Concern{
					Type:        sig.typ,
					Description: strings.TrimSpace(ev.Payload),
					Severity:    sig.severity,
					Urgency:     sig.urgency,
					OwnerID:     ev.SourceID,
				})
				seen[sig.typ] = true
				break
			}
		}
	}
	return out
}

// DetectResolutions scans an event payload for signals that previously
// raised concerns are closed.
func DetectResolutions(ev core.Event) []core.ConcernRef {
	payload := strings.ToLower(ev.Payload)
	var out []core.ConcernRef
	for _, typ := range []core.ConcernType{core.ConcernHealth, core.ConcernExam, core.ConcernTask, core.ConcernEmotion} {
		for _, phrase := range resolutionSignals[typ] {
			if strings.Contains(payload, phrase) {
				out = append(out, core.ConcernRef{OwnerID: ev.SourceID, Type: typ})
				break
			}
		}
	}
	return out
}
