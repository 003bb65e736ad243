// Package quiz implements the timed quiz controller. It owns the answer
// sheet, the countdown and a single-submission latch that keeps a manual
// submit and a countdown expiry in the same tick from grading twice.
package quiz

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/timer"
)

// Unanswered marks a question without a selected option.
const Unanswered = -1

const countdownTimerName = "quiz-countdown"

// User-facing messages.
const (
	MsgLoadFailed   = "Failed to load quiz. Please try again later."
	MsgSubmitFailed = "Failed to submit quiz. Please try again."
	MsgTimeoutLost  = "Time is up and the quiz could not be submitted."
	MsgEmptyQuiz    = "This quiz has no questions yet."
)

// Phase is the quiz lifecycle stage.
type Phase int

const (
	Loading Phase = iota
	InProgress
	Submitting
	Submitted
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case InProgress:
		return "in_progress"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ValidationError is a locally rejected action. It never reaches the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("quiz validation: %s", e.Reason)
}

// QuestionView is a question as shown to the learner. It deliberately has no
// correct-option field.
type QuestionView struct {
	ID      string
	Text    string
	Options []string
}

// Controller runs one quiz attempt.
type Controller struct {
	courseID string
	quizID   string

	def       *backend.QuizDefinition
	answers   []int
	current   int
	remaining int
	hasLimit  bool

	phase   Phase
	latched bool
	forced  bool
	message string
	result  *backend.QuizResult

	countdown timer.Handle
	log       *zap.Logger
}

// New returns a controller in the Loading phase.
func New(courseID, quizID string, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		courseID:  courseID,
		quizID:    quizID,
		phase:     Loading,
		countdown: timer.New(countdownTimerName),
		log:       log.With(zap.String("course_id", courseID), zap.String("quiz_id", quizID)),
	}
}

// Load requests the quiz definition. It is valid initially and again after
// a failed load; a failed load is never retried automatically.
func (c *Controller) Load() []effect.Effect {
	switch {
	case c.phase == Loading:
	case c.phase == Failed && c.def == nil:
		c.phase = Loading
		c.message = ""
	default:
		return nil
	}
	return []effect.Effect{effect.FetchQuiz{CourseID: c.courseID, QuizID: c.quizID}}
}

// OnLoaded seeds the answer sheet and starts the countdown when the quiz
// has a time limit.
func (c *Controller) OnLoaded(def *backend.QuizDefinition) []effect.Effect {
	if c.phase != Loading || def == nil {
		return nil
	}
	// Nothing could ever be submitted, so it is a failed load.
	if len(def.Questions) == 0 {
		c.log.Warn("quiz has no questions")
		c.phase = Failed
		c.message = MsgEmptyQuiz
		return nil
	}
	c.def = def
	c.answers = make([]int, len(def.Questions))
	for i := range c.answers {
		c.answers[i] = Unanswered
	}
	c.current = 0
	c.phase = InProgress

	if def.TimeLimitMinutes != nil && *def.TimeLimitMinutes > 0 {
		c.hasLimit = true
		c.remaining = *def.TimeLimitMinutes * 60
		return []effect.Effect{c.countdown.Arm(time.Second)}
	}
	return nil
}

// OnLoadFailed moves to Failed with a user-facing message.
func (c *Controller) OnLoadFailed(err error) []effect.Effect {
	if c.phase != Loading {
		return nil
	}
	c.log.Warn("quiz load failed", zap.Error(err))
	c.phase = Failed
	c.message = MsgLoadFailed
	return nil
}

// OnTimer advances the countdown. Reaching zero forces a submission.
func (c *Controller) OnTimer(msg timer.FiredMsg) []effect.Effect {
	if !c.countdown.Fire(msg) || c.phase != InProgress || !c.hasLimit {
		return nil
	}
	c.remaining--
	if c.remaining > 0 {
		return []effect.Effect{c.countdown.Arm(time.Second)}
	}
	c.remaining = 0
	c.log.Info("quiz time expired, submitting")
	return c.submit(true)
}

// Answer records optionIndex for questionIndex. Any question may be
// answered regardless of the current index.
func (c *Controller) Answer(questionIndex, optionIndex int) error {
	if c.phase != InProgress {
		return &ValidationError{Reason: "quiz is not in progress"}
	}
	if questionIndex < 0 || questionIndex >= len(c.answers) {
		return &ValidationError{Reason: fmt.Sprintf("question %d out of range", questionIndex)}
	}
	if optionIndex < 0 || optionIndex >= len(c.def.Questions[questionIndex].Options) {
		return &ValidationError{Reason: fmt.Sprintf("option %d out of range", optionIndex)}
	}
	c.answers[questionIndex] = optionIndex
	return nil
}

// Next moves forward one question. It is a no-op on the last question or
// while the current question is unanswered.
func (c *Controller) Next() {
	if c.phase != InProgress || !c.CanNext() {
		return
	}
	c.current++
}

// Previous moves back one question.
func (c *Controller) Previous() {
	if c.phase != InProgress || c.current == 0 {
		return
	}
	c.current--
}

// CanNext reports whether Next would move.
func (c *Controller) CanNext() bool {
	return c.current < len(c.answers)-1 && c.answers[c.current] != Unanswered
}

// Complete reports whether every question has an answer.
func (c *Controller) Complete() bool {
	if len(c.answers) == 0 {
		return false
	}
	for _, a := range c.answers {
		if a == Unanswered {
			return false
		}
	}
	return true
}

// CanSubmit reports whether a manual Submit would be accepted.
func (c *Controller) CanSubmit() bool {
	return c.phase == InProgress && !c.latched && c.Complete()
}

// Submit sends the answer sheet for grading.
func (c *Controller) Submit() ([]effect.Effect, error) {
	if c.phase != InProgress || c.latched {
		return nil, &ValidationError{Reason: "submission not allowed in phase " + c.phase.String()}
	}
	if !c.Complete() {
		return nil, &ValidationError{Reason: "every question must be answered"}
	}
	return c.submit(false), nil
}

func (c *Controller) submit(forced bool) []effect.Effect {
	if c.latched || c.phase != InProgress {
		return nil
	}
	c.latched = true
	c.forced = forced
	c.phase = Submitting
	c.message = ""
	c.countdown.Cancel()

	answers := make([]int, len(c.answers))
	copy(answers, c.answers)
	return []effect.Effect{effect.SubmitQuiz{
		CourseID: c.courseID,
		QuizID:   c.quizID,
		Answers:  answers,
		Forced:   forced,
	}}
}

// OnSubmitted records the graded result.
func (c *Controller) OnSubmitted(res *backend.QuizResult) []effect.Effect {
	if c.phase != Submitting || res == nil {
		return nil
	}
	c.phase = Submitted
	c.result = res
	c.log.Info("quiz submitted",
		zap.Int("correct", res.CorrectAnswers),
		zap.Int("total", res.TotalQuestions),
		zap.Bool("forced", c.forced))
	return nil
}

// OnSubmitFailed handles a grading failure. A manual submission returns to
// InProgress so the learner can retry; a timed-out one is terminal.
func (c *Controller) OnSubmitFailed(err error) []effect.Effect {
	if c.phase != Submitting {
		return nil
	}
	c.log.Warn("quiz submission failed", zap.Error(err), zap.Bool("forced", c.forced))
	if c.forced {
		c.phase = Failed
		c.message = MsgTimeoutLost
		return nil
	}
	c.phase = InProgress
	c.latched = false
	c.message = MsgSubmitFailed
	if c.hasLimit && c.remaining > 0 {
		return []effect.Effect{c.countdown.Arm(time.Second)}
	}
	return nil
}

// Close cancels the countdown.
func (c *Controller) Close() {
	c.countdown.Cancel()
}

// Phase returns the lifecycle stage.
func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) CourseID() string { return c.courseID }
func (c *Controller) QuizID() string   { return c.quizID }

// Title returns the quiz title once loaded.
func (c *Controller) Title() string {
	if c.def == nil {
		return ""
	}
	return c.def.Title
}

// Description returns the quiz description once loaded.
func (c *Controller) Description() string {
	if c.def == nil {
		return ""
	}
	return c.def.Description
}

// Len is the number of questions.
func (c *Controller) Len() int { return len(c.answers) }

// CurrentIndex is the question on screen.
func (c *Controller) CurrentIndex() int { return c.current }

// Question returns the learner-facing view of question i.
func (c *Controller) Question(i int) (QuestionView, bool) {
	if c.def == nil || i < 0 || i >= len(c.def.Questions) {
		return QuestionView{}, false
	}
	q := c.def.Questions[i]
	return QuestionView{ID: q.ID, Text: q.Text, Options: q.Options}, true
}

// AnswerAt returns the selected option for question i, or Unanswered.
func (c *Controller) AnswerAt(i int) int {
	if i < 0 || i >= len(c.answers) {
		return Unanswered
	}
	return c.answers[i]
}

// Answers returns a copy of the answer sheet.
func (c *Controller) Answers() []int {
	out := make([]int, len(c.answers))
	copy(out, c.answers)
	return out
}

// Remaining returns seconds left and whether the quiz is timed.
func (c *Controller) Remaining() (int, bool) { return c.remaining, c.hasLimit }

// Message is the current user-facing status line, if any.
func (c *Controller) Message() string { return c.message }

// Forced reports whether the last submission came from the countdown.
func (c *Controller) Forced() bool { return c.forced }

// Result returns the graded result once Submitted.
func (c *Controller) Result() *backend.QuizResult { return c.result }

// PassingScore is the threshold this quiz is graded against.
func (c *Controller) PassingScore() float64 {
	if c.def == nil {
		return DefaultPassingScore
	}
	return PassingScore(c.def)
}
