// Package anthropic provides a model.Model implementation backed by the
// Anthropic Messages API, mapping awareness tiers to concrete Claude models.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/model"
)

// Options configures the Anthropic model adapter. TierModels maps each
// allowed tier to a Claude model; missing tiers fall back to the light model.
type Options struct {
	TierModels  map[core.ModelTier]anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model
// interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		TierModels: map[core.ModelTier]anthropic.Model{
			core.TierLight:    anthropic.ModelClaude3_5Haiku20241022,
			core.TierStandard: anthropic.ModelClaude3_5Sonnet20241022,
			core.TierDeep:     anthropic.ModelClaudeSonnet4_20250514,
		},
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single non-streaming message.
func (m *Model) Generate(ctx context.Context, prompt string, tier core.ModelTier) (*model.Result, error) {
	if tier == core.TierNone {
		return nil, fmt.Errorf("anthropic: generation requested with tier none")
	}
	name, ok := m.opts.TierModels[tier]
	if !ok {
		name = m.opts.TierModels[core.TierLight]
	}

	resp, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       name,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return &model.Result{
		Text:       text,
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "anthropic", Name: string(m.opts.TierModels[core.TierStandard])}
}

// classify wraps network/timeout failures as transient so the handler
// retries once before degrading to the rule-based path.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &core.TransientProviderError{Provider: "anthropic", Err: err}
	}
	return fmt.Errorf("anthropic api error: %w", err)
}
