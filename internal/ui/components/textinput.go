package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput wraps bubbles/textinput for the chat composer.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput creates a blurred input with the given placeholder.
func NewTextInput(placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{Model: ti}
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	return t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Take returns the trimmed value and clears the input.
func (t *TextInput) Take() string {
	v := t.Value()
	t.Model.SetValue("")
	return v
}

func (t *TextInput) Focus() tea.Cmd { return t.Model.Focus() }
func (t *TextInput) Blur()          { t.Model.Blur() }
func (t TextInput) Focused() bool   { return t.Model.Focused() }

// SetWidth sets the visible width of the input.
func (t *TextInput) SetWidth(w int) {
	if w < 1 {
		w = 1
	}
	t.Model.SetWidth(w)
}
