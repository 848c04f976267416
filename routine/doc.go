// Package routine implements the routine table: a sorted set of time-ranged
// blocks forming a Mind's daily schedule. Resolve answers "what state should
// I be in right now" for any timestamp; gaps fall back to a PASSIVE rest
// block, and blocks may overlap only when at least one of them is flexible.
package routine
