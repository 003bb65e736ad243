package components

import (
	"charm.land/lipgloss/v2"

	"github.com/phnplatform/studyterm/internal/ui/theme"
)

// KeyAction is a single-key command shown inline, such as "Submit (s)".
// It renders dimmed while the command would be refused.
type KeyAction struct {
	Key     string
	Label   string
	Enabled bool
	// Reason replaces the label while disabled, when set.
	Reason string
}

func (a KeyAction) View() string {
	if !a.Enabled {
		text := a.Label
		if a.Reason != "" {
			text = a.Reason
		}
		return theme.ButtonInactive.Render(text)
	}
	key := lipgloss.NewStyle().Bold(true).Underline(true).Render(a.Key)
	return theme.ButtonActive.Render(a.Label + " " + key)
}
