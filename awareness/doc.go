// Package awareness implements the five-level state machine governing a
// Mind's tick cadence and model-call propensity. Transitions are driven by
// the routine table's scheduled target and by urgency overrides from
// high-priority events, with a minimum dwell time before reverting.
package awareness
