package quiz

import (
	"testing"

	"github.com/phnplatform/studyterm/internal/backend"
)

func TestPassingScoreFallback(t *testing.T) {
	tests := []struct {
		name string
		def  *backend.QuizDefinition
		want float64
	}{
		{"nil definition", nil, DefaultPassingScore},
		{"unset", &backend.QuizDefinition{}, DefaultPassingScore},
		{"explicit", &backend.QuizDefinition{PassingScore: 60}, 60},
		{"out of range", &backend.QuizDefinition{PassingScore: 150}, DefaultPassingScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PassingScore(tt.def); got != tt.want {
				t.Errorf("PassingScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerformance(t *testing.T) {
	tests := []struct {
		pct       float64
		threshold float64
		want      Tier
	}{
		{100, 70, TierExcellent},
		{90, 70, TierExcellent},
		{85, 70, TierGreat},
		{75, 70, TierGood},
		{69, 70, TierKeepPracticing},
		{92, 95, TierKeepPracticing},
	}
	for _, tt := range tests {
		if got := Performance(tt.pct, tt.threshold); got != tt.want {
			t.Errorf("Performance(%v, %v) = %v, want %v", tt.pct, tt.threshold, got, tt.want)
		}
	}
}

func TestGradeOutOfRangeAnswerIsIncorrect(t *testing.T) {
	def := &backend.QuizDefinition{Questions: []backend.Question{
		{ID: "a", Options: []string{"x", "y"}, CorrectOption: 1},
		{ID: "b", Options: []string{"x", "y"}, CorrectOption: 0},
	}}
	res := Grade(def, []int{1, 9}, 0)
	if res.CorrectAnswers != 1 {
		t.Fatalf("CorrectAnswers = %d, want 1", res.CorrectAnswers)
	}
	if res.Review[1].UserAnswer != Unanswered {
		t.Errorf("out-of-range answer recorded as %d", res.Review[1].UserAnswer)
	}
	if res.Score != 50 {
		t.Errorf("Score = %v, want 50", res.Score)
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(65); got != "01:05" {
		t.Errorf("FormatClock(65) = %q", got)
	}
	if got := FormatDuration(125); got != "2m 5s" {
		t.Errorf("FormatDuration(125) = %q", got)
	}
}
