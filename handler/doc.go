// Package handler contains the two event-processing paths the dispatcher
// routes between: a free rule-based engine (an ordered list of
// predicate/action pairs, first match wins) and an LLM-backed handler that
// enriches context from memory, enforces a call timeout, retries transient
// provider failures once, and degrades to the rule path rather than blocking
// or surfacing raw errors.
package handler
