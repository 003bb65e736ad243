package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phnplatform/studyterm/internal/backend"
)

func course() []backend.Section {
	return []backend.Section{
		{ID: "s1", Title: "Intro", Items: []backend.ContentItem{
			{ID: "v1", Title: "Welcome", Kind: backend.KindVideo, Completed: true},
			{ID: "d1", Title: "Reading", Kind: backend.KindDocument},
		}},
		{ID: "s2", Title: "Deep dive", Items: []backend.ContentItem{
			{ID: "v2", Title: "Channels", Kind: backend.KindVideo},
			{ID: "q1", Title: "Checkpoint", Kind: backend.KindQuiz, Locked: true},
		}},
	}
}

func TestSelectLockedItemIgnored(t *testing.T) {
	c := New(course(), nil)
	require.True(t, c.SelectContent("v2"))

	assert.False(t, c.SelectContent("q1"))
	assert.Equal(t, "v2", c.Selected())
}

func TestSelectUnknownItemIgnored(t *testing.T) {
	c := New(course(), nil)
	assert.False(t, c.SelectContent("nope"))
	assert.Empty(t, c.Selected())
}

func TestSelectExpandsOwningSection(t *testing.T) {
	c := New(course(), nil)
	require.False(t, c.Expanded("s2"))

	require.True(t, c.SelectContent("v2"))
	assert.True(t, c.Expanded("s2"))
	assert.False(t, c.Expanded("s1"))

	c.SelectContent("v1")
	assert.True(t, c.Expanded("s1"))
	assert.True(t, c.Expanded("s2"), "sections are never collapsed automatically")
}

func TestToggleSection(t *testing.T) {
	c := New(course(), nil)
	c.ToggleSection("s1")
	assert.True(t, c.Expanded("s1"))
	c.ToggleSection("s1")
	assert.False(t, c.Expanded("s1"))
}

func TestToggleCanCollapseSelectedSection(t *testing.T) {
	c := New(course(), nil)
	require.True(t, c.SelectContent("v2"))
	require.True(t, c.Expanded("s2"))

	c.ToggleSection("s2")
	assert.False(t, c.Expanded("s2"), "an explicit toggle is honoured")
	assert.Equal(t, "v2", c.Selected())

	c.Replace(course())
	assert.True(t, c.Expanded("s2"), "a refresh expands the selected section again")
}

func TestSetSelectedAutoExpands(t *testing.T) {
	c := New(course(), nil)
	c.SetSelected("q1")
	assert.True(t, c.Expanded("s2"))
	item, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "Checkpoint", item.Title)
}

func TestStaleSelectionHasNoCurrent(t *testing.T) {
	c := New(course(), nil)
	c.SetSelected("removed")
	_, ok := c.Current()
	assert.False(t, ok)
}

func TestReplaceKeepsSelectionAndExpansion(t *testing.T) {
	c := New(course(), nil)
	c.SelectContent("v2")

	refreshed := course()
	refreshed[1].Items[0].Completed = true
	refreshed[1].Items[1].Locked = false
	c.Replace(refreshed)

	item, ok := c.Current()
	require.True(t, ok)
	assert.True(t, item.Completed)
	assert.True(t, c.Expanded("s2"))
	assert.True(t, c.SelectContent("q1"))
}

func TestCursorActivate(t *testing.T) {
	c := New(course(), nil)

	rows := c.Rows()
	require.Len(t, rows, 2)

	assert.False(t, c.Activate()) // expands s1
	assert.Len(t, c.Rows(), 4)

	c.CursorDown()
	assert.True(t, c.Activate())
	assert.Equal(t, "v1", c.Selected())

	c.CursorDown()
	c.CursorDown()
	assert.False(t, c.Activate()) // expands s2
	c.CursorDown()
	c.CursorDown()
	assert.False(t, c.Activate(), "locked item")
	assert.Equal(t, "v1", c.Selected())

	for i := 0; i < 10; i++ {
		c.CursorDown()
	}
	assert.Equal(t, len(c.Rows())-1, c.Cursor())
}

func TestProgress(t *testing.T) {
	c := New(course(), nil)
	done, total := c.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 4, total)
}
