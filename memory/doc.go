// Package memory contains concrete MemoryStore implementations. The store
// interface and SearchResult type reside in the core package; depend on
// core.MemoryStore in your code and select an implementation at wiring time.
//
// Handlers use memory only to enrich prompt context before a model call; the
// scheduler itself never touches it. The in-memory store below is a
// substring-matching stand-in for a real vector index.
package memory
