// Package goldmark renders assistant markdown to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling.
package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/parley-sh/parley"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Render parses markdown source and returns ANSI-styled terminal output
// word-wrapped to width. Code blocks keep their original line breaks.
func Render(source string, width int, theme parley.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := renderer{
		width:   width,
		heading: lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		code:    lipgloss.NewStyle().Background(color(theme.CodeBg)),
		muted:   lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		link:    lipgloss.NewStyle().Foreground(color(theme.Accent)).Underline(true),
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
	}

	doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(source)))
	var buf bytes.Buffer
	r.blocks(&buf, doc, []byte(source), 0)
	return strings.TrimRight(buf.String(), "\n")
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

type renderer struct {
	width   int
	heading lipgloss.Style
	code    lipgloss.Style
	muted   lipgloss.Style
	link    lipgloss.Style
	bold    lipgloss.Style
	italic  lipgloss.Style
}

func (r renderer) blocks(buf *bytes.Buffer, parent ast.Node, source []byte, depth int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(buf, n, source, depth)
		if n.NextSibling() != nil && depth == 0 {
			buf.WriteString("\n")
		}
	}
}

func (r renderer) block(buf *bytes.Buffer, n ast.Node, source []byte, depth int) {
	switch n := n.(type) {
	case *ast.Heading:
		r.wrap(buf, r.heading.Render(r.inlines(n, source)), 0)

	case *ast.Paragraph, *ast.TextBlock:
		r.wrap(buf, r.inlines(n, source), depth)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang) + "\n")
		}
		r.codeLines(buf, n.Lines(), source)

	case *ast.CodeBlock:
		r.codeLines(buf, n.Lines(), source)

	case *ast.List:
		r.list(buf, n, source, depth)

	case *ast.ThematicBreak:
		r.wrap(buf, r.muted.Render(strings.Repeat("─", min(r.width, 24))), 0)

	default:
		// Blockquotes and anything else: render children unadorned.
		r.blocks(buf, n, source, depth)
	}
}

func (r renderer) codeLines(buf *bytes.Buffer, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		buf.WriteString("  " + r.code.Render(line) + "\n")
	}
}

func (r renderer) list(buf *bytes.Buffer, n *ast.List, source []byte, depth int) {
	num := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if n.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		prefix := strings.Repeat("  ", depth) + marker
		var body bytes.Buffer
		r.blocks(&body, item, source, depth+1)
		for i, line := range strings.Split(strings.TrimRight(body.String(), "\n"), "\n") {
			if i == 0 {
				buf.WriteString(prefix + line + "\n")
			} else {
				buf.WriteString(strings.Repeat(" ", len(prefix)) + line + "\n")
			}
		}
	}
}

// wrap word-wraps styled text to the renderer width, accounting for the
// indentation a nested block carries.
func (r renderer) wrap(buf *bytes.Buffer, s string, depth int) {
	w := r.width - depth*2
	if w < 10 {
		w = 10
	}
	buf.WriteString(lipgloss.NewStyle().Width(w).Render(s))
	buf.WriteString("\n")
}

func (r renderer) inlines(parent ast.Node, source []byte) string {
	var buf bytes.Buffer
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.inline(&buf, n, source)
	}
	return buf.String()
}

func (r renderer) inline(buf *bytes.Buffer, n ast.Node, source []byte) {
	switch n := n.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		style := r.italic
		if n.Level > 1 {
			style = r.bold
		}
		buf.WriteString(style.Render(r.inlines(n, source)))

	case *ast.CodeSpan:
		buf.WriteString(r.code.Render(r.inlines(n, source)))

	case *ast.Link:
		buf.WriteString(r.link.Render(r.inlines(n, source)))
		buf.WriteString(r.muted.Render(" (" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.link.Render(string(n.URL(source))))

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(buf, c, source)
		}
	}
}
