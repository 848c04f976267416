package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mindloop-ai/mindloop/core"
)

// storedMemory is the internal representation persisted by InMemoryStore.
type storedMemory struct {
	id       string
	content  string
	metadata map[string]string
	storedAt time.Time
}

// InMemoryStore is a naive process-local MemoryStore: append-only stored
// content with case-insensitive substring Search, newest hits first.
// Concurrency: protected by RWMutex. Suitable for tests and demos; swap for
// a vector index for production retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []storedMemory
}

// NewInMemoryStore creates an empty in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Store appends a memory entry.
func (m *InMemoryStore) Store(ctx context.Context, content string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	m.entries = append(m.entries, storedMemory{
		id:       core.NewID(),
		content:  content,
		metadata: md,
		storedAt: time.Now().UTC(),
	})
	return nil
}

// Search performs a case-insensitive substring match over stored memories.
// Every hit scores 1.0; results are ordered newest first and truncated to
// limit (limit <= 0 means no limit).
func (m *InMemoryStore) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	var hits []storedMemory
	for _, e := range m.entries {
		if strings.Contains(strings.ToLower(e.content), needle) {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].storedAt.After(hits[j].storedAt) })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]core.SearchResult, len(hits))
	for i, e := range hits {
		md := make(map[string]string, len(e.metadata))
		for k, v := range e.metadata {
			md[k] = v
		}
		results[i] = core.SearchResult{ID: e.id, Content: e.content, Score: 1.0, Metadata: md}
	}
	return results, nil
}
