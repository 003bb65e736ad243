package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openaiTransport serves OpenAI and every OpenAI-compatible gateway.
type openaiTransport struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a Provider backed by the OpenAI chat completions API.
// BaseURL points it at any compatible server.
func NewOpenAI(cfg VendorConfig) (Provider, error) {
	return newOpenAICompatible(mustVendor("openai"), cfg)
}

// NewOpenRouter returns a Provider for OpenRouter, which speaks the OpenAI
// protocol. Model names are OpenRouter's own and pass through unchanged.
func NewOpenRouter(cfg VendorConfig) (Provider, error) {
	return newOpenAICompatible(mustVendor("openrouter"), cfg)
}

func newOpenAICompatible(v vendor, cfg VendorConfig) (Provider, error) {
	if err := v.check(cfg); err != nil {
		return nil, err
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		conf.BaseURL = cfg.BaseURL
	case v.baseURL != "":
		conf.BaseURL = v.baseURL
	}
	model := v.resolve(cfg.Model)
	return &vendorModel{
		vendor: v.name,
		model:  model,
		t:      &openaiTransport{client: openai.NewClientWithConfig(conf), model: model},
	}, nil
}

func (t *openaiTransport) send(ctx context.Context, p Prompt) (*Completion, error) {
	req, err := openaiRequest(t.model, p)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, statusError(apiErr.HTTPStatusCode, 0, err)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, statusError(reqErr.HTTPStatusCode, 0, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("openai reply has no choices")}
	}

	choice := resp.Choices[0]
	stop := StopEnd
	if choice.FinishReason == openai.FinishReasonLength {
		stop = StopMaxTokens
	}
	return &Completion{
		Body:  []byte(choice.Message.Content),
		Usage: Usage{Input: resp.Usage.PromptTokens, Output: resp.Usage.CompletionTokens},
		Model: resp.Model,
		Stop:  stop,
	}, nil
}

func openaiRequest(model string, p Prompt) (openai.ChatCompletionRequest, error) {
	req := openai.ChatCompletionRequest{
		Model:               model,
		MaxCompletionTokens: p.tokenBudget(),
		Temperature:         float32(p.Temperature),
		Messages:            make([]openai.ChatCompletionMessage, 0, len(p.Turns)+1),
	}
	if p.System != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}
	for _, turn := range p.Turns {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    learnerOrTutor(turn.Speaker, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant),
			Content: turn.Text,
		})
	}
	if p.Schema == nil {
		return req, nil
	}

	def, err := json.Marshal(p.Schema.Definition)
	if err != nil {
		return req, fmt.Errorf("marshal schema %q: %w", p.Schema.Name, err)
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        p.Schema.Name,
			Description: p.Schema.Description,
			Schema:      json.RawMessage(def),
			Strict:      true,
		},
	}
	return req, nil
}
