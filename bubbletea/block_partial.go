package bubbletea

import (
	"strings"

	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/goldmark"
)

var _ MessageBlock = (*PartialBlock)(nil)

// PartialBlock renders an in-progress assistant message with a streaming
// cursor. The text is re-rendered on every delta, so no caching.
type PartialBlock struct {
	text   string
	theme  parley.Theme
	styles Styles
}

// NewPartialBlock creates a PartialBlock.
func NewPartialBlock(text string, theme parley.Theme, styles Styles) *PartialBlock {
	return &PartialBlock{text: text, theme: theme, styles: styles}
}

func (b *PartialBlock) View(width int) string {
	text := b.text
	if hasUnclosedFence(text) {
		// Close the fence only for rendering so partial streams display safely.
		text += "\n```"
	}
	rendered := goldmark.Render(text, width, b.theme)
	return rendered + b.styles.Partial.Render("▌")
}

// hasUnclosedFence detects an unclosed fenced code block by counting "```"
// occurrences. Literal triple backticks inside inline code spans would fool
// it, but streamed chat output essentially never contains those.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
