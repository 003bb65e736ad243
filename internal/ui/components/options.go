package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/phnplatform/studyterm/internal/ui/theme"
)

// OptionList renders the options of a multiple-choice question.
//
// While answering, Cursor marks the highlighted option and Chosen the
// recorded answer (-1 for none). In review mode Correct is the right option
// and Chosen is what the learner picked.
type OptionList struct {
	Options []string
	Cursor  int
	Chosen  int
	Review  bool
	Correct int
}

// OptionLabel returns "A", "B", ... for index i.
func OptionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}

// View renders one option per line.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		mark := "( )"
		if i == o.Chosen {
			mark = "(•)"
		}
		prefix := "  "
		if !o.Review && i == o.Cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s %s) %s", prefix, mark, OptionLabel(i), opt)

		var style lipgloss.Style
		switch {
		case o.Review && i == o.Correct:
			style = theme.Correct
			line += "  ✓"
		case o.Review && i == o.Chosen:
			style = theme.Incorrect
			line += "  ✗"
		case o.Review:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == o.Cursor:
			style = theme.Cursor
		case i == o.Chosen:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
