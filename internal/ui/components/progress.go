package components

import (
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/phnplatform/studyterm/internal/ui/theme"
)

// ProgressBar is a labelled horizontal bar. Fraction is clamped to [0,1].
// Suffix (a percentage, a time) is right-aligned after the bar.
type ProgressBar struct {
	Label    string
	Fraction float64
	Suffix   string
	Width    int
}

// minBar keeps a bar visible however long the label gets.
const minBar = 4

func NewProgressBar(label string, fraction float64, suffix string, width int) ProgressBar {
	return ProgressBar{Label: label, Fraction: fraction, Suffix: suffix, Width: width}
}

// Filled returns how many of n cells are filled. NaN counts as empty.
func (p ProgressBar) Filled(n int) int {
	f := p.Fraction
	if math.IsNaN(f) || f < 0 {
		f = 0
	}
	return int(math.Round(float64(n) * math.Min(f, 1)))
}

func (p ProgressBar) View() string {
	var label, suffix string
	if p.Label != "" {
		label = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}
	if p.Suffix != "" {
		suffix = "  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(p.Suffix)
	}

	bar := max(p.Width-lipgloss.Width(label)-lipgloss.Width(suffix), minBar)
	filled := p.Filled(bar)
	return label +
		theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", bar-filled)) +
		suffix
}
