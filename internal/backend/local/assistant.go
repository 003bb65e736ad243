package local

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/llm"
)

// ReplySchema is the structured reply the assistant must produce.
var ReplySchema = &llm.Schema{
	Name:        "assistant-reply",
	Description: "A tutor's answer to a learner's question about the current lesson",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The answer shown to the learner, plain text",
			},
			"sources": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Titles of the course items the answer draws on; empty if none",
			},
		},
		"required":             []any{"message", "sources"},
		"additionalProperties": false,
	},
}

// AssistantConfig tunes assistant requests.
type AssistantConfig struct {
	MaxTokens   int
	Temperature float64
	// LessonChars caps how much of the lesson body is included as context.
	LessonChars int
}

func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: 0.3,
		LessonChars: 4000,
	}
}

type assistant struct {
	provider llm.Provider
	cfg      AssistantConfig
}

func newAssistant(p llm.Provider, cfg AssistantConfig) *assistant {
	return &assistant{provider: p, cfg: cfg}
}

type replyOutput struct {
	Message string   `json:"message"`
	Sources []string `json:"sources"`
}

func (a *assistant) answer(ctx context.Context, courseTitle string, lesson *backend.Content, req backend.ChatRequest) (*backend.ChatReply, error) {
	system, err := a.buildSystemPrompt(courseTitle, lesson)
	if err != nil {
		return nil, fmt.Errorf("build assistant prompt: %w", err)
	}

	resp, err := a.provider.Complete(ctx, llm.Prompt{
		Purpose:     llm.PurposeChat,
		System:      system,
		Turns:       conversation(req.Context, req.Message),
		Schema:      ReplySchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant reply: %w", err)
	}

	var out replyOutput
	if err := llm.Decode(ReplySchema, resp.Body, &out); err != nil {
		return nil, fmt.Errorf("parse assistant reply: %w", err)
	}
	msg := strings.TrimSpace(out.Message)
	if msg == "" {
		return nil, fmt.Errorf("assistant reply: empty message")
	}
	return &backend.ChatReply{Message: msg, Sources: out.Sources}, nil
}

const assistantPreamble = `You are a patient teaching assistant inside a terminal learning app. Answer the learner's question about the course they are taking.

Instructions:
- Keep answers short and concrete; the reply is shown in a narrow chat panel.
- Use plain text, no markdown headings.
- Prefer the lesson text below when it is relevant and list the titles you used in sources.
- If you do not know, say so.`

var assistantTemplate = template.Must(template.New("assistant").Parse(`{{.Preamble}}

Course: {{.Course}}
{{- if .LessonTitle}}
Current lesson: {{.LessonTitle}}
{{- if .LessonBody}}
Lesson text:
{{.LessonBody}}
{{- end}}
{{- end}}`))

func (a *assistant) buildSystemPrompt(courseTitle string, lesson *backend.Content) (string, error) {
	data := struct {
		Preamble    string
		Course      string
		LessonTitle string
		LessonBody  string
	}{
		Preamble: assistantPreamble,
		Course:   courseTitle,
	}
	if lesson != nil {
		data.LessonTitle = lesson.Title
		body := strings.TrimSpace(lesson.Body)
		if a.cfg.LessonChars > 0 && len(body) > a.cfg.LessonChars {
			body = body[:a.cfg.LessonChars]
		}
		data.LessonBody = body
	}

	var buf bytes.Buffer
	if err := assistantTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// conversation turns the context window back into speaker turns. Chat
// history alternates learner and tutor and every finished exchange ends
// with the tutor, so speakers are assigned counting back from the newest
// entry. Vendors want the learner to speak first, so a leading tutor turn
// is dropped.
func conversation(window []string, question string) []llm.Turn {
	turns := make([]llm.Turn, 0, len(window)+1)
	for i, text := range window {
		speaker := llm.Learner
		if (len(window)-1-i)%2 == 0 {
			speaker = llm.Tutor
		}
		if len(turns) == 0 && speaker == llm.Tutor {
			continue
		}
		turns = append(turns, llm.Turn{Speaker: speaker, Text: text})
	}
	return append(turns, llm.Turn{Speaker: llm.Learner, Text: question})
}
