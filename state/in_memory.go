package state

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mindloop-ai/mindloop/core"
)

// InMemoryStore is a volatile StateStore holding the latest snapshot in
// process memory. Snapshots round-trip through JSON so the store surfaces
// the same encoding behavior as durable backends.
type InMemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

// NewInMemoryStore constructs an empty in-memory state store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Persist replaces the stored snapshot.
func (s *InMemoryStore) Persist(ctx context.Context, snap *core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = blob
	return nil
}

// Restore returns the stored snapshot or core.ErrNoSnapshot.
func (s *InMemoryStore) Restore(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, core.ErrNoSnapshot
	}
	var snap core.Snapshot
	if err := json.Unmarshal(s.blob, &snap); err != nil {
		return nil, &core.CorruptStateError{Err: err}
	}
	return &snap, nil
}
