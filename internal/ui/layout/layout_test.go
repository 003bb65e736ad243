package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderFooterDropsOverflow(t *testing.T) {
	hints := []KeyHint{
		{Key: "space", Description: "Play/pause"},
		{Key: "←→", Description: "Seek"},
		{Key: "m", Description: "Mute"},
	}
	wide := RenderFooter(hints, 100)
	assert.Contains(t, wide, "Mute")

	narrow := RenderFooter(hints, 30)
	assert.Contains(t, narrow, "Play/pause")
	assert.NotContains(t, narrow, "Mute")
	assert.Equal(t, 3, strings.Count(narrow, "\n")+1, "hints stay on one bordered line")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Intro", Truncate("Intro", 10))
	assert.Equal(t, "Introduc…", Truncate("Introduction", 9))
	assert.Equal(t, "…", Truncate("Introduction", 1))
	assert.Equal(t, "", Truncate("Introduction", 0))
}

func TestSizes(t *testing.T) {
	assert.True(t, IsTooSmall(79, 30))
	assert.False(t, IsTooSmall(80, 24))
	assert.True(t, IsWide(WideWidth))
	assert.False(t, IsWide(WideWidth-1))
}
