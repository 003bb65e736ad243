package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/phnplatform/studyterm/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider supplies the right-hand header text.
type StatusProvider interface {
	Status() string
}

// BackgroundHandler is implemented by screens that keep receiving
// asynchronous results (replies, timers, reloads) while covered by another
// screen. Input messages are never delivered in the background.
type BackgroundHandler interface {
	HandleBackground(msg tea.Msg) tea.Cmd
}

// Closer is implemented by screens owning timers or other resources that
// must be released when the screen leaves the stack.
type Closer interface {
	Close()
}
