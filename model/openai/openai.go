// Package openai provides a model.Model implementation backed by the OpenAI
// Chat Completions API, mapping awareness tiers to concrete chat models.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/openai/openai-go"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/model"
)

// Options configure the OpenAI model adapter. TierModels maps each allowed
// tier to a chat model; missing tiers fall back to the light model.
type Options struct {
	TierModels          map[core.ModelTier]string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model
// interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		TierModels: map[core.ModelTier]string{
			core.TierLight:    openai.ChatModelGPT4oMini,
			core.TierStandard: openai.ChatModelGPT4o,
			core.TierDeep:     openai.ChatModelGPT4o,
		},
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single non-streaming completion.
func (m *Model) Generate(ctx context.Context, prompt string, tier core.ModelTier) (*model.Result, error) {
	if tier == core.TierNone {
		return nil, fmt.Errorf("openai: generation requested with tier none")
	}
	name, ok := m.opts.TierModels[tier]
	if !ok {
		name = m.opts.TierModels[core.TierLight]
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: name,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty completion response")
	}
	return &model.Result{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "openai", Name: m.opts.TierModels[core.TierStandard]}
}

// classify wraps network/timeout failures as transient so the handler
// retries once before degrading to the rule-based path.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &core.TransientProviderError{Provider: "openai", Err: err}
	}
	return fmt.Errorf("openai api error: %w", err)
}
