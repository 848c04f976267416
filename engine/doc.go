// Package engine implements the decision dispatcher: the event-driven loop
// that keeps a Mind appearing continuously active without a model call on
// every tick. Each tick it reconciles the awareness state machine against
// the routine table, scans the concern tracker for due follow-ups, drains a
// bounded batch of events from the priority queue, and routes every event
// through the budget governor to either the free rule-based handler or the
// LLM-backed handler. Handler failures are isolated per event; one bad event
// never stalls the loop.
package engine
