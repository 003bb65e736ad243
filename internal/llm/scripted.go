package llm

import (
	"context"
	"errors"
	"sync"
)

// Step is one scripted outcome.
type Step struct {
	Body  string
	Usage Usage
	Err   error
}

// Reply scripts a successful completion with the given body.
func Reply(body string) Step { return Step{Body: body} }

// Fail scripts a failed completion.
func Fail(err error) Step { return Step{Err: err} }

// Scripted plays back steps in order and records every prompt. It is the
// "mock" provider and the test double for the assistant. Once the script
// runs out every call fails as unavailable.
type Scripted struct {
	mu      sync.Mutex
	steps   []Step
	prompts []Prompt
}

func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

func (s *Scripted) Complete(_ context.Context, p Prompt) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, p)
	if len(s.steps) == 0 {
		return nil, &ErrProviderUnavailable{Err: errors.New("script exhausted")}
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	return &Completion{Body: []byte(step.Body), Usage: step.Usage, Model: "mock", Stop: StopEnd}, nil
}

func (s *Scripted) Model() string { return "mock" }

// Then appends steps to the script.
func (s *Scripted) Then(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, steps...)
}

// Prompts returns the prompts received so far.
func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}

// Calls returns how many prompts were received.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
