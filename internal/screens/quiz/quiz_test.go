package quiz

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/executor"
	qz "github.com/phnplatform/studyterm/internal/quiz"
	"github.com/phnplatform/studyterm/internal/router"
	"github.com/phnplatform/studyterm/internal/screens/results"
	"github.com/phnplatform/studyterm/internal/timer"
)

type recorder struct {
	ran []effect.Effect
}

func (r *recorder) Run(effs ...effect.Effect) tea.Cmd {
	r.ran = append(r.ran, effs...)
	return nil
}

func (r *recorder) last() effect.Effect {
	if len(r.ran) == 0 {
		return nil
	}
	return r.ran[len(r.ran)-1]
}

func twoQuestions(limit *int) *backend.QuizDefinition {
	return &backend.QuizDefinition{
		ID:    "q1",
		Title: "Channels",
		Questions: []backend.Question{
			{ID: "a", Text: "Unbuffered send blocks until?", Options: []string{"never", "a receive"}, CorrectOption: 1},
			{ID: "b", Text: "Closing twice?", Options: []string{"panics", "no-op", "error"}, CorrectOption: 0},
		},
		TimeLimitMinutes: limit,
	}
}

func key(s *QuizScreen, k string) tea.Cmd {
	var msg tea.KeyPressMsg
	switch k {
	case "enter":
		msg = tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		msg = tea.KeyPressMsg{Code: tea.KeyEscape}
	case "down":
		msg = tea.KeyPressMsg{Code: tea.KeyDown}
	case "right":
		msg = tea.KeyPressMsg{Code: tea.KeyRight}
	default:
		msg = tea.KeyPressMsg{Code: []rune(k)[0], Text: k}
	}
	_, cmd := s.Update(msg)
	return cmd
}

func started(t *testing.T, limit *int) (*QuizScreen, *recorder) {
	t.Helper()
	r := &recorder{}
	s := New("c1", "q1", Options{Runner: r, Title: "Quiz"})
	s.Init()
	if _, ok := r.last().(effect.FetchQuiz); !ok {
		t.Fatalf("Init should fetch the quiz, ran %v", r.ran)
	}
	s.Update(executor.QuizLoadedMsg{CourseID: "c1", QuizID: "q1", Def: twoQuestions(limit)})
	if s.Controller().Phase() != qz.InProgress {
		t.Fatalf("phase = %v", s.Controller().Phase())
	}
	return s, r
}

func TestAnswerAndSubmit(t *testing.T) {
	s, r := started(t, nil)

	key(s, "down")
	key(s, "enter")
	if got := s.Controller().AnswerAt(0); got != 1 {
		t.Fatalf("answer 0 = %d, want 1", got)
	}

	key(s, "s")
	if _, ok := r.last().(effect.SubmitQuiz); ok {
		t.Fatal("incomplete sheet must not be submitted")
	}
	if v := s.View(100, 30); !strings.Contains(v, "Every question must be answered") {
		t.Error("expected validation message")
	}

	key(s, "right")
	key(s, "a")
	key(s, "s")
	sub, ok := r.last().(effect.SubmitQuiz)
	if !ok {
		t.Fatalf("expected a submission, last = %#v", r.last())
	}
	if sub.Forced || sub.Answers[0] != 1 || sub.Answers[1] != 0 {
		t.Errorf("submission = %+v", sub)
	}

	cmd := func() tea.Cmd {
		_, c := s.Update(executor.QuizSubmittedMsg{QuizID: "q1", Result: &backend.QuizResult{
			Score: 100, TotalQuestions: 2, CorrectAnswers: 2,
		}})
		return c
	}()
	if cmd == nil {
		t.Fatal("expected results to replace the quiz")
	}
	rep, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected a replace message")
	}
	res, ok := rep.Screen.(*results.ResultsScreen)
	if !ok || !res.Passed() {
		t.Error("expected a passing results screen")
	}
}

func TestNumberKeysAnswer(t *testing.T) {
	s, _ := started(t, nil)
	key(s, "2")
	if got := s.Controller().AnswerAt(0); got != 1 {
		t.Errorf("answer = %d, want 1", got)
	}
	key(s, "9")
	if got := s.Controller().AnswerAt(0); got != 1 {
		t.Errorf("out of range option should not change the answer, got %d", got)
	}
}

func TestCountdownForcesSubmission(t *testing.T) {
	limit := 1
	s, r := started(t, &limit)
	if got := s.Status(); got != "⏱ 01:00" {
		t.Errorf("status = %q", got)
	}
	key(s, "b")

	for i := 0; i < 60; i++ {
		st, ok := r.last().(effect.StartTimer)
		if !ok {
			t.Fatalf("tick %d: expected the countdown to be armed, last = %#v", i, r.last())
		}
		s.Update(timer.FiredMsg{Timer: st.Timer, Gen: st.Gen})
	}

	sub, ok := r.last().(effect.SubmitQuiz)
	if !ok || !sub.Forced {
		t.Fatalf("expiry should force a submission, last = %#v", r.last())
	}
	if sub.Answers[1] != qz.Unanswered {
		t.Errorf("unanswered questions are sent as such, got %v", sub.Answers)
	}
	if s.Controller().Phase() != qz.Submitting {
		t.Errorf("phase = %v", s.Controller().Phase())
	}
}

func TestForcedSubmissionFailureIsTerminal(t *testing.T) {
	limit := 1
	s, r := started(t, &limit)
	for i := 0; i < 60; i++ {
		st := r.last().(effect.StartTimer)
		s.Update(timer.FiredMsg{Timer: st.Timer, Gen: st.Gen})
	}
	s.Update(executor.QuizSubmittedMsg{QuizID: "q1", Forced: true, Err: errors.New("offline")})

	if s.Controller().Phase() != qz.Failed {
		t.Errorf("phase = %v, want failed", s.Controller().Phase())
	}
	n := len(r.ran)
	key(s, "r")
	if len(r.ran) != n {
		t.Error("a lost timed attempt must not be reloaded")
	}
}

func TestLoadFailureRetries(t *testing.T) {
	r := &recorder{}
	s := New("c1", "q1", Options{Runner: r})
	s.Init()
	s.Update(executor.QuizLoadedMsg{CourseID: "c1", QuizID: "q1", Err: backend.ErrNotFound})
	if !strings.Contains(s.View(100, 30), "Press r") {
		t.Error("expected a retry hint")
	}
	key(s, "r")
	if got := len(r.ran); got != 2 {
		t.Errorf("fetches = %d, want 2", got)
	}
}

func TestOtherQuizMessagesIgnored(t *testing.T) {
	s, _ := started(t, nil)
	s.Update(executor.QuizSubmittedMsg{QuizID: "other", Err: errors.New("x")})
	if s.Controller().Phase() != qz.InProgress {
		t.Error("messages for another quiz must be ignored")
	}
}

func TestEscLeaves(t *testing.T) {
	s, _ := started(t, nil)
	cmd := key(s, "esc")
	if cmd == nil {
		t.Fatal("expected esc to leave")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("esc without an Exit command should pop")
	}
}
