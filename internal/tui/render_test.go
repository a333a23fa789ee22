package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRendererWrapsWithoutMarkdown(t *testing.T) {
	r := NewMarkdownRenderer("dark", false)
	r.SetWidth(10)

	rendered, err := r.Render("**magnesium** helps muscles")
	require.NoError(t, err)
	assert.Contains(t, rendered, "**magnesium**")
	for _, line := range strings.Split(rendered, "\n") {
		assert.LessOrEqual(t, len(line), 13)
	}
}

func TestMarkdownRendererRendersLists(t *testing.T) {
	r := NewMarkdownRenderer("dark", true)

	rendered, err := r.Render("- spinach\n- lentils")
	require.NoError(t, err)
	assert.Contains(t, rendered, "•")
	assert.Contains(t, rendered, "spinach")
	assert.False(t, strings.HasPrefix(rendered, "\n"))
	assert.False(t, strings.HasSuffix(rendered, "\n"))
}

func TestRendererKeepsDefaultWidth(t *testing.T) {
	r := NewMarkdownRenderer("auto", true)
	assert.Equal(t, defaultWidth, r.Width())

	r.SetWidth(0)
	assert.Equal(t, defaultWidth, r.Width())

	r.SetWidth(42)
	assert.Equal(t, 42, r.Width())
}
