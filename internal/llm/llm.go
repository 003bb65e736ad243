// Package llm talks to hosted language models on behalf of the offline
// course assistant. Each vendor SDK sits behind a small transport; the
// shared model wrapper applies token defaults and validates structured
// replies, and decorators add retries and event recording.
package llm

import (
	"context"
	"encoding/json"
)

// Provider answers one prompt.
type Provider interface {
	// Complete sends p and returns the model's reply. When p.Schema is set
	// the reply body is JSON that has been validated against it.
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}

// Purpose labels why a prompt was sent. It is stored with each event and
// drives the `llm list --purpose` filter.
type Purpose string

const (
	PurposeChat Purpose = "chat"
	PurposePing Purpose = "ping"
)

// Speaker identifies who said a turn.
type Speaker string

const (
	Learner Speaker = "learner"
	Tutor   Speaker = "tutor"
)

// Turn is one message of the conversation.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Prompt is a single request: standing instructions plus the conversation
// so far, which must end with the learner's turn being answered.
type Prompt struct {
	Purpose Purpose
	System  string
	Turns   []Turn

	// Schema asks for a JSON reply in the given shape. Nil asks for text.
	Schema *Schema

	// MaxTokens caps the reply. Zero means DefaultMaxTokens.
	MaxTokens int

	// Temperature in [0,1]. Zero leaves the vendor default.
	Temperature float64
}

// DefaultMaxTokens applies when a Prompt leaves MaxTokens unset.
const DefaultMaxTokens = 1024

func (p Prompt) tokenBudget() int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return DefaultMaxTokens
}

// Question is a prompt with no earlier turns.
func Question(purpose Purpose, system, text string) Prompt {
	return Prompt{
		Purpose: purpose,
		System:  system,
		Turns:   []Turn{{Speaker: Learner, Text: text}},
	}
}

// Schema describes the JSON reply a prompt expects.
type Schema struct {
	// Name is kebab-case. It keys the compiled-schema cache and is sent
	// to vendors that name their response formats.
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is why the model stopped generating.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Completion is a model reply.
type Completion struct {
	// Body is the validated JSON object when a schema was requested and
	// the raw text otherwise.
	Body  json.RawMessage
	Usage Usage
	// Model is the model that actually served the request, which may be
	// a dated variant of the configured alias.
	Model string
	Stop  StopReason
}

// Usage counts tokens for one request.
type Usage struct {
	Input  int
	Output int
}

func (u Usage) Total() int { return u.Input + u.Output }
