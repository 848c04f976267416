package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloop-ai/mindloop/core"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mind", cfg.MindID)
	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, 50, cfg.Budget.CallsLimit)
	assert.Equal(t, 20, cfg.Engine.DrainPerTick)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 300*time.Second, cfg.SnapshotInterval())
	assert.Equal(t, 3, cfg.Concerns.MaxUnackedFollowUps)
	assert.Equal(t, 14, cfg.Concerns.MaxAgeDays)

	start, end, err := cfg.SleepWindow()
	require.NoError(t, err)
	assert.Equal(t, 22*60, start)
	assert.Equal(t, 6*60, end)

	blocks, err := cfg.RoutineBlocks()
	require.NoError(t, err)
	assert.Nil(t, blocks)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mind_id: aria
provider: anthropic
budget:
  calls_limit: 10
sleep:
  start: "23:30"
  end: "07:00"
routine:
  - name: work
    domain: work
    start: "09:00"
    end: "17:00"
    awareness: FOCUSED
  - name: evening
    domain: personal
    start: "17:00"
    end: "23:30"
    awareness: ALERT
    flexible: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "aria", cfg.MindID)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 10, cfg.Budget.CallsLimit)
	// Unset keys keep defaults.
	assert.Equal(t, 50_000, cfg.Budget.TokensLimit)

	start, end, err := cfg.SleepWindow()
	require.NoError(t, err)
	assert.Equal(t, 23*60+30, start)
	assert.Equal(t, 7*60, end)

	blocks, err := cfg.RoutineBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, core.Focused, blocks[0].TargetAwareness)
	assert.Equal(t, 9*60, blocks[0].Start)
	assert.True(t, blocks[1].Flexible)
}

func TestLoad_BadRoutineRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routine:
  - name: broken
    start: "25:00"
    end: "26:00"
    awareness: FOCUSED
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.RoutineBlocks()
	assert.Error(t, err)
}
