package llm

// ModelCost holds per-million-token pricing for a model in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
// Responses may report a dated model id; the undated alias is tried too.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	for _, v := range vendors {
		for alias, id := range v.aliases {
			if id != modelID {
				continue
			}
			if c, ok := modelCosts[alias]; ok {
				return &c
			}
		}
	}
	return nil
}

// modelCosts covers the models reachable through the friendly names in
// this package plus the common direct ids used with the assistant.
var modelCosts = map[string]ModelCost{
	// Anthropic
	"claude-haiku":            {1, 5},
	"claude-sonnet":           {3, 15},
	"claude-haiku-4-5":        {1, 5},
	"claude-sonnet-4-5":       {3, 15},
	"claude-3-5-haiku-latest": {0.8, 4},

	// OpenAI
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-5-mini":   {0.25, 2},

	// Google (Gemini)
	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-pro":        {1.25, 10},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}
