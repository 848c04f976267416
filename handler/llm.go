package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/logging"
	"github.com/mindloop-ai/mindloop/model"
)

// DefaultLLMTimeout bounds one model call; past it the event degrades to the
// rule-based path instead of blocking the tick loop.
const DefaultLLMTimeout = 30 * time.Second

// memoryContextLimit is how many prior memories enrich a prompt.
const memoryContextLimit = 3

// LLMOptions configures an LLMHandler.
type LLMOptions struct {
	Timeout time.Duration
	Memory  core.MemoryStore
	Logger  logging.Logger
}

// LLMHandler is the expensive path. One transient provider failure is
// retried once; a second failure or a non-transient error degrades the event
// to the rule engine, so the caller always receives a usable result.
type LLMHandler struct {
	model    model.Model
	fallback *RuleEngine
	memory   core.MemoryStore
	timeout  time.Duration
	logger   logging.Logger
}

// NewLLMHandler builds the expensive-path handler around a model and the
// rule engine it degrades to.
func NewLLMHandler(m model.Model, fallback *RuleEngine, optFns ...func(o *LLMOptions)) *LLMHandler {
	opts := LLMOptions{
		Timeout: DefaultLLMTimeout,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLMHandler{
		model:    m,
		fallback: fallback,
		memory:   opts.Memory,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// HandleWithTier processes one event through the model at the given tier.
// Concern and resolution detection run on the same payload as the rule path
// so the two paths agree on what was raised or closed.
func (h *LLMHandler) HandleWithTier(ctx context.Context, ev core.Event, tier core.ModelTier) (*core.HandlerResult, error) {
	prompt := h.buildPrompt(ctx, ev)

	res, err := h.generateOnce(ctx, prompt, tier)
	if err != nil && core.IsTransient(err) {
		h.logger.Warn("transient provider failure, retrying once", "event_id", ev.ID, "error", err.Error())
		res, err = h.generateOnce(ctx, prompt, tier)
	}
	if err != nil {
		h.logger.Warn("expensive path failed, degrading to rules", "event_id", ev.ID, "error", err.Error())
		fres, ferr := h.fallback.Handle(ctx, ev)
		if ferr != nil {
			return fres, ferr
		}
		fres.Degraded = true
		return fres, nil
	}

	if h.memory != nil && ev.Payload != "" {
		if err := h.memory.Store(ctx, ev.Payload, map[string]string{"event_id": ev.ID, "source_id": ev.SourceID}); err != nil {
			h.logger.Warn("memory store failed", "event_id", ev.ID, "error", err.Error())
		}
	}

	out := &core.HandlerResult{
		Status:     core.StatusHandled,
		Reply:      res.Text,
		TokensUsed: res.TokensUsed,
	}
	// Synthetic events carry the Mind's own phrasing; mining them for concern
	// keywords would re-open the very concern being followed up.
	if ev.Type != core.EventFollowUp && ev.Type != core.EventAcknowledgment {
		out.Concerns = DetectConcerns(ev)
		out.Resolutions = DetectResolutions(ev)
	}
	return out, nil
}

func (h *LLMHandler) generateOnce(ctx context.Context, prompt string, tier core.ModelTier) (*model.Result, error) {
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	res, err := h.model.Generate(cctx, prompt, tier)
	dur := time.Since(start)
	if err != nil {
		h.logger.Debug("model call failed", "duration", dur, "error", err.Error())
		if cctx.Err() == context.DeadlineExceeded {
			return nil, &core.TransientProviderError{Provider: h.model.Info().Provider, Err: cctx.Err()}
		}
		return nil, err
	}
	h.logger.Debug("model call completed", "duration", dur, "tokens", res.TokensUsed)
	return res, nil
}

// buildPrompt assembles the event payload with a few related memories. The
// scheduler core stays out of prompt engineering; this is the minimal
// context a conversational reply needs.
func (h *LLMHandler) buildPrompt(ctx context.Context, ev core.Event) string {
	var b strings.Builder
	switch ev.Type {
	case core.EventFollowUp:
		fmt.Fprintf(&b, "You are checking in on an earlier topic. %s\n", ev.Payload)
	default:
		fmt.Fprintf(&b, "The user says: %s\n", ev.Payload)
	}
	if h.memory != nil {
		results, err := h.memory.Search(ctx, ev.Payload, memoryContextLimit)
		if err == nil && len(results) > 0 {
			b.WriteString("Related context from earlier conversations:\n")
			for _, r := range results {
				fmt.Fprintf(&b, "- %s\n", r.Content)
			}
		}
	}
	return b.String()
}
