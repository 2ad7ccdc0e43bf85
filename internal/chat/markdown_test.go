package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownBasic(t *testing.T) {
	html, err := RenderMarkdown("**bold** and `code`")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<code>code</code>")
}

func TestRenderMarkdownGFMTable(t *testing.T) {
	html, err := RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	html, err := RenderMarkdown(`hello <script>alert("x")</script> world`)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "alert")
	assert.Contains(t, html, "hello")
}

func TestRenderMarkdownStripsEventHandlers(t *testing.T) {
	html, err := RenderMarkdown(`<a href="https://example.com" onclick="evil()">link</a>`)
	require.NoError(t, err)
	assert.NotContains(t, html, "onclick")
	assert.Contains(t, html, "example.com")
}
