package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/internal/testutil"
)

// Interface compliance (compile-time assertions)
var (
	_ core.StateStore = (*InMemoryStore)(nil)
	_ core.StateStore = (*SQLiteStore)(nil)
)

func sampleSnapshot() *core.Snapshot {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &core.Snapshot{
		AwarenessLevel: core.Alert,
		LastTickAt:     at,
		Budget:         core.BudgetCounter{CallsUsed: 3, TokensUsed: 2400, CallsLimit: 50, TokensLimit: 50_000, ResetAt: at.Add(12 * time.Hour)},
		PendingEvents:  testutil.Events(9, 5),
		Concerns: []core.Concern{{
			ID:          "01J0000000000000000000TEST",
			Type:        core.ConcernHealth,
			Severity:    0.7,
			Urgency:     core.UrgencyHigh,
			OwnerID:     "owner-1",
			CreatedAt:   at,
			NextCheckAt: at.Add(12 * time.Hour),
			Status:      core.ConcernActive,
			Checks:      2,
		}},
		SavedAt: at,
	}
}

func TestInMemoryStore_RoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_, err := s.Restore(ctx)
	assert.ErrorIs(t, err, core.ErrNoSnapshot)

	want := sampleSnapshot()
	require.NoError(t, s.Persist(ctx, want))

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.AwarenessLevel, got.AwarenessLevel)
	assert.Equal(t, want.Budget, got.Budget)
	require.Len(t, got.PendingEvents, 2)
	require.Len(t, got.Concerns, 1)
	// next_check_at must survive the round trip (minute precision suffices;
	// RFC 3339 keeps the full second).
	assert.True(t, want.Concerns[0].NextCheckAt.Equal(got.Concerns[0].NextCheckAt))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mind.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Restore(ctx)
	assert.ErrorIs(t, err, core.ErrNoSnapshot)

	want := sampleSnapshot()
	require.NoError(t, s.Persist(ctx, want))
	// Persist twice: the snapshot row is an upsert, not an append.
	want.AwarenessLevel = core.Focused
	require.NoError(t, s.Persist(ctx, want))

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Focused, got.AwarenessLevel)
	require.Len(t, got.Concerns, 1)
	assert.True(t, want.Concerns[0].NextCheckAt.Equal(got.Concerns[0].NextCheckAt))
	assert.Equal(t, 0, s.RestoreFailures(ctx))
}

func TestSQLiteStore_CorruptStateCountsAcrossRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mind.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, sampleSnapshot()))
	_, err = s.db.ExecContext(ctx, `UPDATE snapshots SET blob = 'not json' WHERE id = 1`)
	require.NoError(t, err)

	var corrupt *core.CorruptStateError
	_, err = s.Restore(ctx)
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 1, s.RestoreFailures(ctx))

	// The counter survives reopening, mirroring a crash-restart cycle.
	require.NoError(t, s.Close())
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	_, err = s2.Restore(ctx)
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 2, s2.RestoreFailures(ctx))

	// A successful restore resets the streak.
	require.NoError(t, s2.Persist(ctx, sampleSnapshot()))
	_, err = s2.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s2.RestoreFailures(ctx))
}
