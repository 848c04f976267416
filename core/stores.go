package core

import "context"

// StateStore persists and restores whole-state snapshots for crash recovery.
// Persist is invoked by the dispatcher at a configurable interval and on
// graceful shutdown.
type StateStore interface {
	Persist(ctx context.Context, snap *Snapshot) error
	// Restore returns the most recent snapshot, ErrNoSnapshot when none has
	// been persisted yet, or a *CorruptStateError when stored state cannot
	// be decoded.
	Restore(ctx context.Context) (*Snapshot, error)
}

// SearchResult is one ranked memory returned by a MemoryStore.
type SearchResult struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MemoryStore provides storage and retrieval of prior conversational
// content. The scheduler itself never calls it; handlers use it to enrich
// context before a model call.
type MemoryStore interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Store(ctx context.Context, content string, metadata map[string]string) error
}
