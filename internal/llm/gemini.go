package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type geminiTransport struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Provider backed by the Gemini API.
func NewGemini(ctx context.Context, cfg VendorConfig) (Provider, error) {
	v := mustVendor("gemini")
	if err := v.check(cfg); err != nil {
		return nil, err
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := v.resolve(cfg.Model)
	return &vendorModel{
		vendor: v.name,
		model:  model,
		t:      &geminiTransport{client: client, model: model},
	}, nil
}

func (t *geminiTransport) send(ctx context.Context, p Prompt) (*Completion, error) {
	contents := make([]*genai.Content, 0, len(p.Turns))
	for _, turn := range p.Turns {
		contents = append(contents, &genai.Content{
			Role:  learnerOrTutor(turn.Speaker, "user", "model"),
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, geminiConfig(p))
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, statusError(apiErr.Code, 0, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	c := &Completion{Body: []byte(result.Text()), Model: t.model, Stop: StopEnd}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == "MAX_TOKENS" {
		c.Stop = StopMaxTokens
	}
	if u := result.UsageMetadata; u != nil {
		c.Usage = Usage{Input: int(u.PromptTokenCount), Output: int(u.CandidatesTokenCount)}
	}
	return c, nil
}

func geminiConfig(p Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(p.tokenBudget())}
	if p.Temperature > 0 {
		temp := float32(p.Temperature)
		cfg.Temperature = &temp
	}
	if p.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.System}}}
	}
	if p.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = geminiSchema(p.Schema.Definition)
	}
	return cfg
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// geminiSchema converts the JSON Schema subset used by reply schemas.
// Gemini rejects keywords it does not know, so only these are carried.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeString}
	if t, ok := def["type"].(string); ok {
		if gt, ok := geminiTypes[t]; ok {
			s.Type = gt
		}
	}
	s.Description, _ = def["description"].(string)

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = geminiSchema(sub)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])
	return s
}

func stringList(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
