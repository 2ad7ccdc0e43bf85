package chat

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// The renderer and policy are immutable after construction and safe to
// share across requests.
var (
	renderOnce sync.Once
	renderer   goldmark.Markdown
	sanitizer  *bluemonday.Policy
)

func initRenderer() {
	renderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	sanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts assistant markdown into sanitized HTML. Model
// output is untrusted input; everything outside the UGC allowlist is
// stripped before it reaches the browser.
func RenderMarkdown(source string) (string, error) {
	renderOnce.Do(initRenderer)

	var buf bytes.Buffer
	if err := renderer.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return sanitizer.Sanitize(buf.String()), nil
}
