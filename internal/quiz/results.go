package quiz

import (
	"fmt"
	"time"

	"github.com/phnplatform/studyterm/internal/backend"
)

// DefaultPassingScore applies when a quiz definition carries no threshold.
const DefaultPassingScore = 70.0

// Tier is a performance band on the results screen.
type Tier int

const (
	TierKeepPracticing Tier = iota
	TierGood
	TierGreat
	TierExcellent
)

// PassingScore returns the definition's threshold, falling back to
// DefaultPassingScore when it is unset or out of range.
func PassingScore(def *backend.QuizDefinition) float64 {
	if def == nil || def.PassingScore <= 0 || def.PassingScore > 100 {
		return DefaultPassingScore
	}
	return def.PassingScore
}

// Percentage is the share of correct answers, 0-100.
func Percentage(res *backend.QuizResult) float64 {
	if res == nil || res.TotalQuestions <= 0 {
		return 0
	}
	return float64(res.CorrectAnswers) / float64(res.TotalQuestions) * 100
}

// Passed reports whether res meets threshold.
func Passed(res *backend.QuizResult, threshold float64) bool {
	return Percentage(res) >= threshold
}

// Performance buckets a percentage.
func Performance(pct, threshold float64) Tier {
	switch {
	case pct < threshold:
		return TierKeepPracticing
	case pct >= 90:
		return TierExcellent
	case pct >= 80:
		return TierGreat
	}
	return TierGood
}

func (t Tier) Message() string {
	switch t {
	case TierExcellent:
		return "Excellent! You have mastered this topic!"
	case TierGreat:
		return "Great job! You have a strong understanding."
	case TierGood:
		return "Good work! You have passed the quiz."
	}
	return "Keep practicing! You can do better."
}

// Grade scores answers against def. Unanswered or out-of-range answers
// count as incorrect. Score is the percentage of correct answers.
func Grade(def *backend.QuizDefinition, answers []int, elapsed time.Duration) *backend.QuizResult {
	res := &backend.QuizResult{
		TotalQuestions: len(def.Questions),
		TimeTaken:      elapsed.Seconds(),
		Review:         make([]backend.ReviewItem, len(def.Questions)),
	}
	for i, q := range def.Questions {
		ans := Unanswered
		if i < len(answers) && answers[i] >= 0 && answers[i] < len(q.Options) {
			ans = answers[i]
		}
		item := backend.ReviewItem{
			ID:            q.ID,
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			UserAnswer:    ans,
		}
		if item.Correct() {
			res.CorrectAnswers++
		}
		res.Review[i] = item
	}
	res.Score = Percentage(res)
	return res
}

// FormatDuration renders seconds as "Xm Ys".
func FormatDuration(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm %ds", s/60, s%60)
}

// FormatClock renders a countdown as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
