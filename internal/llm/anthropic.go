package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicTransport struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns a Provider backed by the Anthropic Messages API.
// Extra options are passed to the SDK client.
func NewAnthropic(cfg VendorConfig, opts ...option.RequestOption) (Provider, error) {
	v := mustVendor("anthropic")
	if err := v.check(cfg); err != nil {
		return nil, err
	}
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := v.resolve(cfg.Model)
	return &vendorModel{
		vendor: v.name,
		model:  model,
		t:      &anthropicTransport{client: anthropic.NewClient(opts...), model: model},
	}, nil
}

func (t *anthropicTransport) send(ctx context.Context, p Prompt) (*Completion, error) {
	msg, err := t.client.Messages.New(ctx, anthropicParams(t.model, p))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, statusError(apiErr.StatusCode, retryAfter(apiErr.Response), err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	// Text replies may be split across several blocks.
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("anthropic reply has no text block")}
	}

	stop := StopEnd
	if msg.StopReason == "max_tokens" {
		stop = StopMaxTokens
	}
	return &Completion{
		Body:  []byte(text.String()),
		Usage: Usage{Input: int(msg.Usage.InputTokens), Output: int(msg.Usage.OutputTokens)},
		Model: string(msg.Model),
		Stop:  stop,
	}, nil
}

func anthropicParams(model string, p Prompt) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(p.tokenBudget()),
		Messages:  make([]anthropic.MessageParam, 0, len(p.Turns)),
	}
	for _, turn := range p.Turns {
		role := anthropic.MessageParamRole(learnerOrTutor(turn.Speaker,
			string(anthropic.MessageParamRoleUser), string(anthropic.MessageParamRoleAssistant)))
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(turn.Text)},
		})
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	if p.Temperature > 0 {
		params.Temperature = anthropic.Float(p.Temperature)
	}
	if p.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: p.Schema.Definition},
		}
	}
	return params
}
