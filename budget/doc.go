// Package budget implements the LLM budget governor: per-day call and token
// accounting against configured limits, the deterministic per-event draw
// against the current awareness level's call probability, and the scheduled
// daily counter reset. Reserved-priority user input always passes, logged
// when it pushes usage past the limit.
package budget
