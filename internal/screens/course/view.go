package course

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/chat"
	"github.com/phnplatform/studyterm/internal/playback"
	"github.com/phnplatform/studyterm/internal/ui/components"
	"github.com/phnplatform/studyterm/internal/ui/layout"
	"github.com/phnplatform/studyterm/internal/ui/theme"
)

func formatCount(done, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}

func (s *CourseScreen) View(width, height int) string {
	if s.nav == nil {
		msg := theme.Hint.Render("Loading course...")
		if s.loadErr != "" {
			msg = theme.ErrorText.Render(s.loadErr)
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	// Panel borders take two rows and two columns.
	inner := height - 2
	outline := s.panel(s.renderOutline(layout.SidebarWidth-4, inner), focusOutline, layout.SidebarWidth, height)

	rest := width - layout.SidebarWidth
	if !layout.IsWide(width) {
		// Narrow terminals swap the content pane for the assistant.
		if s.focus == focusChat {
			return lipgloss.JoinHorizontal(lipgloss.Top, outline,
				s.panel(s.renderChat(rest-4, inner), focusChat, rest, height))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, outline,
			s.panel(s.renderContent(rest-4, inner), focusContent, rest, height))
	}

	mid := rest - layout.ChatWidth
	return lipgloss.JoinHorizontal(lipgloss.Top,
		outline,
		s.panel(s.renderContent(mid-4, inner), focusContent, mid, height),
		s.panel(s.renderChat(layout.ChatWidth-4, inner), focusChat, layout.ChatWidth, height),
	)
}

func (s *CourseScreen) panel(body string, f focus, width, height int) string {
	style := theme.Panel
	if s.focus == f {
		style = theme.FocusedPanel
	}
	return style.Width(width - 2).Height(height - 2).MaxHeight(height).Render(body)
}

func (s *CourseScreen) renderOutline(width, height int) string {
	rows := s.nav.Rows()
	cursor := s.nav.Cursor()

	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		var line string
		if r.IsSection() {
			arrow := "▸"
			if s.nav.Expanded(r.SectionID) {
				arrow = "▾"
			}
			line = theme.SectionHeading.Render(layout.Truncate(arrow+" "+r.Section.Title, width))
		} else {
			line = s.renderItemRow(*r.Item, width)
		}
		if i == cursor && s.focus == focusOutline {
			line = theme.Cursor.Render("›") + line
		} else {
			line = " " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(window(lines, cursor, height), "\n")
}

func (s *CourseScreen) renderItemRow(it backend.ContentItem, width int) string {
	mark := kindIcon(it.Kind)
	style := theme.Unselected
	switch {
	case it.Locked:
		mark = "🔒"
		style = theme.Locked
	case it.Completed:
		mark = "✓"
		style = theme.Completed
	}
	if it.ID == s.nav.Selected() {
		style = theme.Selected
	}
	return "  " + style.Render(layout.Truncate(mark+" "+it.Title, width-2))
}

func kindIcon(k backend.ContentKind) string {
	switch k {
	case backend.KindVideo:
		return "▶"
	case backend.KindQuiz:
		return "?"
	case backend.KindAssignment:
		return "✎"
	}
	return "≡"
}

// window keeps the line at focus visible within height lines.
func window(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func (s *CourseScreen) renderContent(width, height int) string {
	item, ok := s.nav.Current()
	switch {
	case s.nav.Selected() == "":
		return theme.Hint.Render("Pick an item from the outline to begin.")
	case !ok:
		return theme.Warning.Render("This item is no longer available.") + "\n\n" +
			theme.Hint.Render("It may have been moved or removed. Pick another item from the outline.")
	case s.contentErr != "":
		return theme.ErrorText.Width(width).Render(s.contentErr)
	case item.Kind == backend.KindQuiz:
		return theme.Title.Render(item.Title) + "\n\n" +
			theme.Hint.Render("Press Enter on the quiz in the outline to start an attempt.")
	case s.loading || s.content == nil:
		return theme.Hint.Render("Loading...")
	}

	c := s.content
	var b strings.Builder
	b.WriteString(theme.Title.Render(layout.Truncate(c.Title, width)))
	b.WriteString("\n\n")

	switch {
	case s.player != nil:
		b.WriteString(renderPlayer(s.player.State(), width))
	case c.Kind == backend.KindDocument:
		body := theme.Body.Width(width).Render(c.Body)
		lines := strings.Split(body, "\n")
		avail := max(height-4, 1)
		s.scroll = min(s.scroll, max(len(lines)-avail, 0))
		end := min(s.scroll+avail, len(lines))
		b.WriteString(strings.Join(lines[s.scroll:end], "\n"))
	default:
		b.WriteString(theme.Hint.Width(width).Render(
			fmt.Sprintf("%s items are not shown in the terminal. Open the course on the web to work on it.", kindLabel(c.Kind))))
	}

	var nav []string
	if c.PreviousID != "" {
		nav = append(nav, "← p previous")
	}
	if c.NextID != "" {
		nav = append(nav, "n next →")
	}
	if len(nav) > 0 {
		b.WriteString("\n\n")
		b.WriteString(theme.Subtitle.Render(strings.Join(nav, "   ")))
	}
	return b.String()
}

func kindLabel(k backend.ContentKind) string {
	if k == "" {
		return "These"
	}
	s := string(k)
	return strings.ToUpper(s[:1]) + s[1:]
}

func renderPlayer(st playback.State, width int) string {
	if st.Errored {
		return theme.ErrorText.Render("⚠ Video unavailable: " + st.ErrorReason)
	}

	var b strings.Builder
	icon := "▶ Paused"
	if st.Playing {
		icon = "⏸ Playing"
	}
	if st.Completed {
		icon += "  " + theme.Completed.Render("✓ Watched")
	}
	b.WriteString(icon)
	b.WriteString("\n\n")

	clock := playback.FormatTime(st.Position) + " / "
	if st.DurationKnown {
		clock += playback.FormatTime(st.Duration)
	} else {
		clock += "--:--"
	}
	b.WriteString(components.NewProgressBar(clock, st.Progress()/100, fmt.Sprintf("%d%%", int(st.Progress())), width).View())
	b.WriteString("\n\n")

	if !st.ControlsVisible {
		return b.String()
	}
	vol := fmt.Sprintf("Volume %3d%%", int(st.EffectiveVolume()*100+0.5))
	if st.Muted {
		vol = "Volume muted"
	}
	b.WriteString(theme.Subtitle.Render(vol + "   Speed " + playback.FormatRate(st.Rate)))
	return b.String()
}

func (s *CourseScreen) renderChat(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Assistant"))
	b.WriteString("\n")

	var msgs []string
	for _, m := range s.chat.History() {
		msgs = append(msgs, renderMessage(m, width))
	}
	if s.chat.Pending() {
		msgs = append(msgs, s.spin.View()+theme.Hint.Render(" thinking..."))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, theme.Hint.Width(width).Render("Ask anything about the item you are studying."))
	}

	s.input.SetWidth(width - 3)
	composer := s.input.View()

	// Newest messages stay visible above the composer.
	lines := strings.Split(strings.Join(msgs, "\n\n"), "\n")
	avail := max(height-3, 1)
	if len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(composer)
	return b.String()
}

func renderMessage(m chat.Message, width int) string {
	if m.Sender == chat.User {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right,
			theme.UserBubble.MaxWidth(width).Render(m.Text))
	}
	style := theme.AssistantBubble
	if m.Fallback {
		style = style.Foreground(theme.Error)
	}
	out := style.Width(width).Render(m.Text)
	if len(m.Sources) > 0 {
		out += "\n" + theme.Source.Width(width).Render("Sources: "+strings.Join(m.Sources, ", "))
	}
	return out
}
