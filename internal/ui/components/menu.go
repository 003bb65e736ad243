package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/phnplatform/studyterm/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Hint is rendered dimmed after the label.
type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of actions. Selection skips disabled items and
// wraps at both ends; digits 1-9 run an item directly.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.Selected = m.step(1)
	return m
}

// step returns the next enabled index in direction dir, or the current
// selection if none is enabled.
func (m Menu) step(dir int) int {
	n := len(m.Items)
	if n == 0 {
		return m.Selected
	}
	for i := 1; i <= n; i++ {
		idx := ((m.Selected+dir*i)%n + n) % n
		if !m.Items[idx].Disabled {
			return idx
		}
	}
	return m.Selected
}

func (m Menu) run(idx int) tea.Cmd {
	if idx < 0 || idx >= len(m.Items) {
		return nil
	}
	item := m.Items[idx]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	switch k := kmsg.String(); k {
	case "up", "k":
		m.Selected = m.step(-1)
	case "down", "j", "tab":
		m.Selected = m.step(1)
	case "enter":
		return m, m.run(m.Selected)
	default:
		if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= len(m.Items) && !m.Items[n-1].Disabled {
			m.Selected = n - 1
			return m, m.run(n - 1)
		}
	}
	return m, nil
}

func (m Menu) View() string {
	selected := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	normal := lipgloss.NewStyle().Foreground(theme.Text)
	hint := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	for i, item := range m.Items {
		line := strconv.Itoa(i+1) + ". " + item.Label
		switch {
		case item.Disabled:
			b.WriteString(theme.Locked.Render("    " + line))
		case i == m.Selected:
			b.WriteString(selected.Render("  ▸ " + line))
		default:
			b.WriteString(normal.Render("    " + line))
		}
		if item.Hint != "" && !item.Disabled {
			b.WriteString("  " + hint.Render(item.Hint))
		}
		b.WriteString("\n")
	}
	return b.String()
}
