package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindloop-ai/mindloop/core"
)

// Result carries the text and token spend of one completed generation.
type Result struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
	Name     string `json:"name"`
}

// Model is the minimal generation interface the dispatcher's expensive path
// requires. The tier bounds how costly a model the adapter may select;
// adapters map tiers to concrete provider models.
type Model interface {
	Generate(ctx context.Context, prompt string, tier core.ModelTier) (*Result, error)
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are matched by substring against the prompt; unmatched prompts
// get a deterministic echo.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel() *MockModel {
	return &MockModel{
		info:      Info{Provider: "mock", Name: "mock-model"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for prompts containing match.
func (m *MockModel) AddResponse(match, response string) { m.responses[match] = response }

// Generate implements Model. Token usage is derived from prompt and response
// length so budget accounting stays deterministic.
func (m *MockModel) Generate(ctx context.Context, prompt string, tier core.ModelTier) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tier == core.TierNone {
		return nil, fmt.Errorf("mock: generation requested with tier none")
	}
	text := ""
	for match, response := range m.responses {
		if strings.Contains(prompt, match) {
			text = response
			break
		}
	}
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}
	return &Result{Text: text, TokensUsed: (len(prompt) + len(text)) / 4}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
