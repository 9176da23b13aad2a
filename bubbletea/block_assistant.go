package bubbletea

import (
	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders a completed assistant message as markdown. The
// text never changes once the message settles, so the rendered output is
// cached per width.
type AssistantBlock struct {
	text  string
	theme parley.Theme

	cacheWidth int
	cached     string
}

// NewAssistantBlock creates an AssistantBlock.
func NewAssistantBlock(text string, theme parley.Theme) *AssistantBlock {
	return &AssistantBlock{text: text, theme: theme}
}

func (b *AssistantBlock) View(width int) string {
	if width == b.cacheWidth && b.cached != "" {
		return b.cached
	}
	b.cacheWidth = width
	b.cached = goldmark.Render(b.text, width, b.theme)
	return b.cached
}
