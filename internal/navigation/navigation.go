// Package navigation tracks which course sections are expanded, which item
// is selected and a keyboard cursor over the visible outline. The section
// owning the selected item is always expanded.
package navigation

import (
	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/backend"
)

// Row is one visible line of the outline: a section header or an item.
type Row struct {
	SectionID string
	Section   *backend.Section
	Item      *backend.ContentItem
}

// IsSection reports whether the row is a section header.
func (r Row) IsSection() bool { return r.Item == nil }

// Controller owns the navigation state for one course view.
type Controller struct {
	sections []backend.Section
	expanded map[string]bool
	selected string
	cursor   int

	log *zap.Logger
}

// New returns a controller over sections with nothing selected.
func New(sections []backend.Section, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		sections: sections,
		expanded: make(map[string]bool),
		log:      log,
	}
}

// ToggleSection flips whether a section is expanded. It may collapse the
// selected item's section; the next selection or Replace expands it again.
func (c *Controller) ToggleSection(id string) {
	if c.expanded[id] {
		delete(c.expanded, id)
	} else {
		c.expanded[id] = true
	}
	c.clampCursor()
}

// SelectContent selects an item through user action. Locked and unknown
// items are ignored. It reports whether the selection was accepted.
func (c *Controller) SelectContent(id string) bool {
	item, ok := backend.FindItem(c.sections, id)
	if !ok {
		return false
	}
	if item.Locked {
		c.log.Debug("ignoring selection of locked item", zap.String("content_id", id))
		return false
	}
	c.selected = id
	c.autoExpand()
	c.moveCursorToSelected()
	return true
}

// SetSelected sets the selection from outside the outline, e.g. a deep link
// or the viewer's next/previous buttons. The id may be stale; Current then
// reports nothing.
func (c *Controller) SetSelected(id string) {
	c.selected = id
	c.autoExpand()
	c.moveCursorToSelected()
}

// Replace swaps in a refreshed section tree, keeping the selection.
func (c *Controller) Replace(sections []backend.Section) {
	c.sections = sections
	c.autoExpand()
	c.clampCursor()
}

// Current resolves the selected item across all sections.
func (c *Controller) Current() (backend.ContentItem, bool) {
	if c.selected == "" {
		return backend.ContentItem{}, false
	}
	return backend.FindItem(c.sections, c.selected)
}

func (c *Controller) autoExpand() {
	if id := c.owningSection(c.selected); id != "" {
		c.expanded[id] = true
	}
}

func (c *Controller) owningSection(contentID string) string {
	if contentID == "" {
		return ""
	}
	for _, s := range c.sections {
		for _, it := range s.Items {
			if it.ID == contentID {
				return s.ID
			}
		}
	}
	return ""
}

// Rows lists the visible outline: every section header followed by its
// items when expanded.
func (c *Controller) Rows() []Row {
	var rows []Row
	for i := range c.sections {
		s := &c.sections[i]
		rows = append(rows, Row{SectionID: s.ID, Section: s})
		if !c.expanded[s.ID] {
			continue
		}
		for j := range s.Items {
			rows = append(rows, Row{SectionID: s.ID, Section: s, Item: &s.Items[j]})
		}
	}
	return rows
}

// CursorUp moves the outline cursor up one row.
func (c *Controller) CursorUp() {
	if c.cursor > 0 {
		c.cursor--
	}
}

// CursorDown moves the outline cursor down one row.
func (c *Controller) CursorDown() {
	if c.cursor < len(c.Rows())-1 {
		c.cursor++
	}
}

// Activate acts on the row under the cursor: a section is toggled, an item
// is selected. It reports whether the selection changed.
func (c *Controller) Activate() bool {
	rows := c.Rows()
	if c.cursor >= len(rows) {
		return false
	}
	row := rows[c.cursor]
	if row.IsSection() {
		c.ToggleSection(row.SectionID)
		return false
	}
	if row.Item.ID == c.selected {
		return false
	}
	return c.SelectContent(row.Item.ID)
}

func (c *Controller) moveCursorToSelected() {
	for i, r := range c.Rows() {
		if r.Item != nil && r.Item.ID == c.selected {
			c.cursor = i
			return
		}
	}
}

func (c *Controller) clampCursor() {
	n := len(c.Rows())
	if c.cursor >= n {
		c.cursor = n - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
}

func (c *Controller) Sections() []backend.Section { return c.sections }
func (c *Controller) Selected() string            { return c.selected }
func (c *Controller) Cursor() int                 { return c.cursor }

// Expanded reports whether a section is expanded.
func (c *Controller) Expanded(id string) bool { return c.expanded[id] }

// Progress counts completed items across the course.
func (c *Controller) Progress() (completed, total int) {
	for _, s := range c.sections {
		for _, it := range s.Items {
			total++
			if it.Completed {
				completed++
			}
		}
	}
	return completed, total
}
