// Package quiz is the timed multiple-choice quiz screen.
package quiz

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/executor"
	qz "github.com/phnplatform/studyterm/internal/quiz"
	"github.com/phnplatform/studyterm/internal/router"
	"github.com/phnplatform/studyterm/internal/screen"
	"github.com/phnplatform/studyterm/internal/screens/results"
	"github.com/phnplatform/studyterm/internal/timer"
	"github.com/phnplatform/studyterm/internal/ui/components"
	"github.com/phnplatform/studyterm/internal/ui/layout"
	"github.com/phnplatform/studyterm/internal/ui/theme"
)

// Runner executes controller effects.
type Runner interface {
	Run(effs ...effect.Effect) tea.Cmd
}

// Options configures a QuizScreen.
type Options struct {
	Runner Runner
	Log    *zap.Logger
	// Title is shown until the definition arrives.
	Title string
	// Exit leaves the quiz or its results. Nil pops the screen.
	Exit tea.Cmd
}

// QuizScreen implements screen.Screen for one quiz attempt.
type QuizScreen struct {
	ctrl   *qz.Controller
	opts   Options
	cursor int
	errMsg string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatusProvider = (*QuizScreen)(nil)
var _ screen.Closer = (*QuizScreen)(nil)

func New(courseID, quizID string, opts Options) *QuizScreen {
	return &QuizScreen{
		ctrl: qz.New(courseID, quizID, opts.Log),
		opts: opts,
	}
}

// Controller exposes the underlying quiz state.
func (s *QuizScreen) Controller() *qz.Controller { return s.ctrl }

func (s *QuizScreen) Init() tea.Cmd {
	return s.opts.Runner.Run(s.ctrl.Load()...)
}

func (s *QuizScreen) Close() {
	s.ctrl.Close()
}

func (s *QuizScreen) Title() string {
	if t := s.ctrl.Title(); t != "" {
		return t
	}
	if s.opts.Title != "" {
		return s.opts.Title
	}
	return "Quiz"
}

func (s *QuizScreen) Status() string {
	rem, ok := s.ctrl.Remaining()
	if !ok || s.ctrl.Phase() != qz.InProgress {
		return ""
	}
	return "⏱ " + qz.FormatClock(rem)
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch s.ctrl.Phase() {
	case qz.InProgress:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Option"},
			{Key: "Enter/1-9", Description: "Answer"},
			{Key: "←→", Description: "Question"},
			{Key: "s", Description: "Submit"},
			{Key: "Esc", Description: "Leave"},
		}
	case qz.Failed:
		return []layout.KeyHint{
			{Key: "r", Description: "Retry"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case executor.QuizLoadedMsg:
		if msg.QuizID != s.ctrl.QuizID() || msg.CourseID != s.ctrl.CourseID() {
			return s, nil
		}
		if msg.Err != nil {
			return s, s.run(s.ctrl.OnLoadFailed(msg.Err))
		}
		s.cursor = 0
		return s, s.run(s.ctrl.OnLoaded(msg.Def))

	case executor.QuizSubmittedMsg:
		if msg.QuizID != s.ctrl.QuizID() {
			return s, nil
		}
		if msg.Err != nil {
			return s, s.run(s.ctrl.OnSubmitFailed(msg.Err))
		}
		s.run(s.ctrl.OnSubmitted(msg.Result))
		if s.ctrl.Phase() != qz.Submitted {
			return s, nil
		}
		return s, s.showResults()

	case timer.FiredMsg:
		return s, s.run(s.ctrl.OnTimer(msg))

	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) run(effs []effect.Effect) tea.Cmd {
	return s.opts.Runner.Run(effs...)
}

func (s *QuizScreen) showResults() tea.Cmd {
	res := results.New(s.ctrl.Result(), results.Options{
		Title:        s.ctrl.Title(),
		PassingScore: s.ctrl.PassingScore(),
		Forced:       s.ctrl.Forced(),
		Retake: func() screen.Screen {
			return New(s.ctrl.CourseID(), s.ctrl.QuizID(), s.opts)
		},
		Exit: s.opts.Exit,
	})
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: res} }
}

func (s *QuizScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()

	if key == "esc" {
		if s.opts.Exit != nil {
			return s.opts.Exit
		}
		return func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.ctrl.Phase() {
	case qz.Failed:
		if key == "r" {
			return s.run(s.ctrl.Load())
		}
		return nil
	case qz.InProgress:
	default:
		return nil
	}

	q, ok := s.ctrl.Question(s.ctrl.CurrentIndex())
	if !ok {
		return nil
	}

	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(q.Options)-1 {
			s.cursor++
		}
	case "enter", "space":
		s.answer(s.cursor)
	case "right", "l", "n", "tab":
		s.ctrl.Next()
		s.syncCursor()
	case "left", "h", "p", "shift+tab":
		s.ctrl.Previous()
		s.syncCursor()
	case "s":
		effs, err := s.ctrl.Submit()
		if err != nil {
			var ve *qz.ValidationError
			if errors.As(err, &ve) {
				s.errMsg = capitalize(ve.Reason)
			}
			return nil
		}
		s.errMsg = ""
		return s.run(effs)
	default:
		if idx, ok := optionIndex(key); ok {
			s.answer(idx)
		}
	}
	return nil
}

func (s *QuizScreen) answer(opt int) {
	if err := s.ctrl.Answer(s.ctrl.CurrentIndex(), opt); err != nil {
		s.errMsg = err.Error()
		return
	}
	s.errMsg = ""
	s.cursor = opt
}

// syncCursor puts the cursor on the recorded answer of the new question.
func (s *QuizScreen) syncCursor() {
	if a := s.ctrl.AnswerAt(s.ctrl.CurrentIndex()); a >= 0 {
		s.cursor = a
	} else {
		s.cursor = 0
	}
}

// optionIndex maps "a".."f" and "1".."9" to option indexes. Letters past
// "f" are navigation keys.
func optionIndex(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	switch {
	case c >= 'a' && c <= 'f':
		return int(c - 'a'), true
	case c >= '1' && c <= '9':
		return int(c - '1'), true
	}
	return 0, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *QuizScreen) View(width, height int) string {
	switch s.ctrl.Phase() {
	case qz.Loading:
		return centered(width, height, theme.Hint.Render("Loading quiz..."))
	case qz.Submitting:
		return centered(width, height, theme.Hint.Render("Submitting answers..."))
	case qz.Failed:
		msg := theme.ErrorText.Render(s.ctrl.Message())
		if s.ctrl.Len() == 0 {
			msg += "\n\n" + theme.Hint.Render("Press r to try again.")
		}
		return centered(width, height, msg)
	case qz.Submitted:
		return centered(width, height, theme.Hint.Render("Grading complete."))
	}
	return s.renderQuestion(width, height)
}

func (s *QuizScreen) renderQuestion(width, height int) string {
	idx := s.ctrl.CurrentIndex()
	q, ok := s.ctrl.Question(idx)
	if !ok {
		return ""
	}
	inner := min(width-6, 76)

	var b strings.Builder
	if d := s.ctrl.Description(); d != "" && idx == 0 {
		b.WriteString(theme.Subtitle.Width(inner).Render(d))
		b.WriteString("\n\n")
	}

	b.WriteString(components.NewProgressBar(
		fmt.Sprintf("Question %d of %d", idx+1, s.ctrl.Len()),
		float64(idx+1)/float64(s.ctrl.Len()),
		"", inner,
	).View())
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Width(inner).Render(q.Text))
	b.WriteString("\n\n")
	b.WriteString(components.OptionList{
		Options: q.Options,
		Cursor:  s.cursor,
		Chosen:  s.ctrl.AnswerAt(idx),
	}.View())
	b.WriteString("\n")

	answered := 0
	for _, a := range s.ctrl.Answers() {
		if a != qz.Unanswered {
			answered++
		}
	}
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("%d of %d answered", answered, s.ctrl.Len())))
	b.WriteString("   ")
	b.WriteString(components.KeyAction{
		Key: "s", Label: "Submit", Enabled: s.ctrl.CanSubmit(), Reason: "Submit when all are answered",
	}.View())
	b.WriteString("\n")

	if rem, ok := s.ctrl.Remaining(); ok && rem <= 60 {
		b.WriteString("\n")
		b.WriteString(theme.Warning.Render(fmt.Sprintf("Less than a minute left (%s)", qz.FormatClock(rem))))
	}
	if m := s.ctrl.Message(); m != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorText.Render(m))
	}
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorText.Render(s.errMsg))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		theme.Panel.Width(inner+4).Render(b.String()))
}

func centered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
