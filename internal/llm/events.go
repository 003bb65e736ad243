package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/store"
)

type recorded struct {
	inner  Provider
	vendor string
	repo   store.EventRepo
	log    *zap.Logger
}

// WithEvents stores every completion, successful or not, as an LLM
// request event. A failing store never fails the completion.
func WithEvents(p Provider, vendor string, repo store.EventRepo, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &recorded{inner: p, vendor: vendor, repo: repo, log: log}
}

func (r *recorded) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	purpose := p.Purpose
	if purpose == "" {
		purpose = "unknown"
	}

	start := time.Now()
	c, err := r.inner.Complete(ctx, p)

	ev := store.LLMRequestEventData{
		Provider:    r.vendor,
		Model:       r.inner.Model(),
		Purpose:     string(purpose),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(p),
	}
	if c != nil {
		ev.Model = c.Model
		ev.InputTokens = c.Usage.Input
		ev.OutputTokens = c.Usage.Output
		ev.ResponseBody = string(c.Body)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	r.log.Debug("llm request",
		zap.String("purpose", ev.Purpose),
		zap.String("model", ev.Model),
		zap.Int64("latency_ms", ev.LatencyMs),
		zap.Int("input_tokens", ev.InputTokens),
		zap.Int("output_tokens", ev.OutputTokens),
		zap.Error(err))

	// The caller's context may already be cancelled; the record still matters.
	if serr := r.repo.AppendLLMRequest(context.WithoutCancel(ctx), ev); serr != nil {
		r.log.Warn("record llm request", zap.Error(serr))
	}
	return c, err
}

func (r *recorded) Model() string { return r.inner.Model() }

// transcript renders a prompt for `studyterm llm view`.
func transcript(p Prompt) string {
	var b strings.Builder
	if p.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", p.System)
	}
	for _, t := range p.Turns {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", t.Speaker, t.Text)
	}
	if p.Schema != nil {
		if def, err := json.Marshal(p.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema %s]\n%s\n", p.Schema.Name, def)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
