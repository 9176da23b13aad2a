package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/parley-sh/parley"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders a classified error in user-facing terms.
type ErrorBlock struct {
	err    *parley.Error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err *parley.Error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render("✗ " + b.err.UserMessage())
	return lipgloss.NewStyle().Width(width).Render(content)
}
