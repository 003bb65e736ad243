// Package results shows a graded quiz: score, pass/fail, a performance
// message and a per-question review.
package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/quiz"
	"github.com/phnplatform/studyterm/internal/router"
	"github.com/phnplatform/studyterm/internal/screen"
	"github.com/phnplatform/studyterm/internal/ui/components"
	"github.com/phnplatform/studyterm/internal/ui/layout"
	"github.com/phnplatform/studyterm/internal/ui/theme"
)

// Options configures a ResultsScreen.
type Options struct {
	Title        string
	PassingScore float64
	// Forced marks a submission made by the countdown.
	Forced bool
	// Retake builds a fresh quiz screen. Nil hides the action.
	Retake func() screen.Screen
	// Exit is sent by the leave action. Nil pops the screen.
	Exit tea.Cmd
}

// ResultsScreen implements screen.Screen for a graded attempt.
type ResultsScreen struct {
	result *backend.QuizResult
	opts   Options
	pct    float64
	passed bool
	tier   quiz.Tier

	menu      components.Menu
	reviewing bool
	reviewIdx int
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

func New(res *backend.QuizResult, opts Options) *ResultsScreen {
	if opts.PassingScore <= 0 {
		opts.PassingScore = quiz.DefaultPassingScore
	}
	if opts.Exit == nil {
		opts.Exit = func() tea.Msg { return router.PopScreenMsg{} }
	}
	pct := quiz.Percentage(res)
	s := &ResultsScreen{
		result: res,
		opts:   opts,
		pct:    pct,
		passed: quiz.Passed(res, opts.PassingScore),
		tier:   quiz.Performance(pct, opts.PassingScore),
	}
	s.menu = s.buildMenu()
	return s
}

func (s *ResultsScreen) buildMenu() components.Menu {
	items := []components.MenuItem{
		{Label: "Review answers", Hint: fmt.Sprintf("%d questions", len(s.result.Review)), Action: func() tea.Cmd {
			s.reviewing = true
			s.reviewIdx = 0
			return nil
		}, Disabled: len(s.result.Review) == 0},
	}
	if s.opts.Retake != nil {
		retake := s.opts.Retake
		items = append(items, components.MenuItem{Label: "Retake quiz", Hint: "starts a fresh attempt", Action: func() tea.Cmd {
			return func() tea.Msg { return router.ReplaceScreenMsg{Screen: retake()} }
		}})
	}
	items = append(items, components.MenuItem{Label: "Back", Action: func() tea.Cmd { return s.opts.Exit }})
	return components.NewMenu(items)
}

func (s *ResultsScreen) Init() tea.Cmd { return nil }

func (s *ResultsScreen) Title() string {
	if s.opts.Title != "" {
		return s.opts.Title + " · Results"
	}
	return "Quiz Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	if s.reviewing {
		return []layout.KeyHint{
			{Key: "←→", Description: "Question"},
			{Key: "Esc/q", Description: "Summary"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "1-9", Description: "Choose"},
	}
}

// Passed reports whether the attempt met the passing score.
func (s *ResultsScreen) Passed() bool { return s.passed }

// Reviewing reports whether the per-question review is open.
func (s *ResultsScreen) Reviewing() bool { return s.reviewing }

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	if s.reviewing {
		switch kmsg.String() {
		case "left", "h", "up", "k":
			if s.reviewIdx > 0 {
				s.reviewIdx--
			}
		case "right", "l", "down", "j":
			if s.reviewIdx < len(s.result.Review)-1 {
				s.reviewIdx++
			}
		case "q", "esc":
			s.reviewing = false
		}
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(kmsg)
	return s, cmd
}

func (s *ResultsScreen) View(width, height int) string {
	if s.reviewing {
		return s.renderReview(width, height)
	}

	var b strings.Builder

	verdict := theme.Correct.Render("PASSED")
	if !s.passed {
		verdict = theme.Incorrect.Render("NOT PASSED")
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.Text).
		Render(fmt.Sprintf("%.0f%%", s.pct)))
	b.WriteString("  ")
	b.WriteString(verdict)
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(s.tier.Message()))
	b.WriteString("\n\n")

	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Correct answers  %d / %d", s.result.CorrectAnswers, s.result.TotalQuestions)))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Passing score    %.0f%%", s.opts.PassingScore)))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("Time taken       " + quiz.FormatDuration(s.result.TimeTaken)))
	b.WriteString("\n")
	if s.opts.Forced {
		b.WriteString("\n")
		b.WriteString(theme.Warning.Render("Time ran out; unanswered questions were marked incorrect."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.menu.View())

	card := theme.Card.Width(min(width-4, 64)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func (s *ResultsScreen) renderReview(width, height int) string {
	item := s.result.Review[s.reviewIdx]

	var b strings.Builder
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", s.reviewIdx+1, len(s.result.Review))))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Width(min(width-8, 70)).Render(item.Text))
	b.WriteString("\n\n")
	b.WriteString(components.OptionList{
		Options: item.Options,
		Chosen:  item.UserAnswer,
		Review:  true,
		Correct: item.CorrectOption,
	}.View())
	b.WriteString("\n")
	switch {
	case item.UserAnswer < 0:
		b.WriteString(theme.Incorrect.Render("Not answered"))
	case item.Correct():
		b.WriteString(theme.Correct.Render("Correct"))
	default:
		b.WriteString(theme.Incorrect.Render("Your answer: " + components.OptionLabel(item.UserAnswer)))
	}

	card := theme.Card.Width(min(width-4, 76)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
