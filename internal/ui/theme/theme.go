package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: calm study colours on a dark background.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#10B981") // Emerald
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgDark    = lipgloss.Color("#111827")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)
)

// Panels
var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	FocusedPanel = Panel.
			BorderForeground(Primary)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// Course tree
var (
	SectionHeading = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	Cursor = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Selected = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Completed = lipgloss.NewStyle().
			Foreground(Success)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim).
		Faint(true)
)

// Chat
var (
	UserBubble = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Padding(0, 1)

	AssistantBubble = lipgloss.NewStyle().
			Foreground(Text).
			Background(BgCard).
			Padding(0, 1)

	Source = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Quiz
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Foreground(TextDim).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 2)
)
