package local

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/llm"
)

func TestConversationAssignsSpeakersFromNewest(t *testing.T) {
	// A full window of five starts mid-exchange with a tutor reply.
	turns := conversation([]string{"t0", "l1", "t1", "l2", "t2"}, "q")
	assert.Equal(t, []llm.Turn{
		{Speaker: llm.Learner, Text: "l1"},
		{Speaker: llm.Tutor, Text: "t1"},
		{Speaker: llm.Learner, Text: "l2"},
		{Speaker: llm.Tutor, Text: "t2"},
		{Speaker: llm.Learner, Text: "q"},
	}, turns)
}

func TestConversationWithoutHistory(t *testing.T) {
	assert.Equal(t, []llm.Turn{{Speaker: llm.Learner, Text: "q"}}, conversation(nil, "q"))
}

func TestSystemPromptCapsLesson(t *testing.T) {
	a := newAssistant(llm.NewScripted(), AssistantConfig{LessonChars: 5})
	prompt, err := a.buildSystemPrompt("Go", &backend.Content{Title: "Slices", Body: "abcdefghij"})
	assert.NoError(t, err)
	assert.Contains(t, prompt, "Course: Go")
	assert.Contains(t, prompt, "Current lesson: Slices")
	assert.Contains(t, prompt, "abcde")
	assert.NotContains(t, prompt, "abcdef")

	prompt, err = a.buildSystemPrompt("Go", nil)
	assert.NoError(t, err)
	assert.NotContains(t, prompt, "Current lesson")
}
