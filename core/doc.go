// Package core provides the foundational domain types and interfaces used by
// mindloop. It defines the core abstractions for:
//
//   - Events (immutable stimuli flowing through the dispatcher)
//   - Awareness levels and their operating profiles
//   - Routine blocks (the scheduled daily rhythm of a Mind)
//   - Concerns (tracked topics requiring future follow-up)
//   - Budget counters for daily LLM spend
//   - Pluggable stores for state snapshots and conversational memory
//
// The package intentionally keeps implementation concerns (persistence,
// dispatch orchestration, concrete model providers) out of scope, exposing
// small interfaces so backends can be swapped without dependency cycles.
package core
