package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloop-ai/mindloop/core"
)

// Interface compliance (compile-time assertion)
var _ Model = (*MockModel)(nil)

func TestMockModel_CannedAndEchoResponses(t *testing.T) {
	m := NewMockModel()
	m.AddResponse("fever", "That sounds rough, rest up.")

	res, err := m.Generate(context.Background(), "The user says: I have a fever", core.TierLight)
	require.NoError(t, err)
	assert.Equal(t, "That sounds rough, rest up.", res.Text)
	assert.Greater(t, res.TokensUsed, 0)

	res, err = m.Generate(context.Background(), "unmatched prompt", core.TierLight)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "unmatched prompt")
}

func TestMockModel_RefusesTierNone(t *testing.T) {
	m := NewMockModel()
	_, err := m.Generate(context.Background(), "anything", core.TierNone)
	assert.Error(t, err)
}
