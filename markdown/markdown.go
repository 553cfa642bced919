// Package markdown renders assistant replies, which the chat backend often
// formats as markdown, to ANSI-styled terminal text. Parsing uses goldmark
// with the GFM strikethrough and linkify extensions; styling uses lipgloss.
package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cosap/voicechat"
	"github.com/rivo/uniseg"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Renderer converts markdown to styled text. A Renderer is safe for
// concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	bold   lipgloss.Style
	italic lipgloss.Style
	strike lipgloss.Style
	code   lipgloss.Style
	head   lipgloss.Style
	muted  lipgloss.Style
	link   lipgloss.Style
}

// New returns a Renderer using theme's colors.
func New(theme voicechat.Theme) *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify)),
		bold:   lipgloss.NewStyle().Bold(true),
		italic: lipgloss.NewStyle().Italic(true),
		strike: lipgloss.NewStyle().Strikethrough(true),
		code:   lipgloss.NewStyle().Foreground(color(theme.Accent)).Background(color(theme.CodeBg)),
		head:   lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		link:   lipgloss.NewStyle().Underline(true),
	}
}

// Render returns source as styled text wrapped to width. Code blocks keep
// their lines as written.
func Render(source string, width int, theme voicechat.Theme) string {
	return New(theme).Render(source, width)
}

// Render returns source as styled text wrapped to width.
func (r *Renderer) Render(source string, width int) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if b := r.block(n, src, width); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (r *Renderer) block(n ast.Node, src []byte, width int) string {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return wrap(r.inline(n, src), width)
	case *ast.Heading:
		return wrap(r.head.Render(r.inline(n, src)), width)
	case *ast.FencedCodeBlock:
		var b strings.Builder
		if lang := string(n.Language(src)); lang != "" {
			b.WriteString(r.muted.Render(lang))
			b.WriteString("\n")
		}
		b.WriteString(r.codeLines(n, src))
		return b.String()
	case *ast.CodeBlock:
		return r.codeLines(n, src)
	case *ast.Blockquote:
		inner := r.children(n, src, width-2)
		bar := r.muted.Render("┃") + " "
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			lines[i] = bar + l
		}
		return strings.Join(lines, "\n")
	case *ast.List:
		var b bytes.Buffer
		r.list(n, src, width, 0, &b)
		return strings.TrimRight(b.String(), "\n")
	case *ast.ThematicBreak:
		return r.muted.Render(strings.Repeat("─", min(width, 40)))
	case *ast.HTMLBlock:
		var b strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return r.children(n, src, width)
	}
}

func (r *Renderer) children(n ast.Node, src []byte, width int) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if b := r.block(c, src, width); b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (r *Renderer) codeLines(n ast.Node, src []byte) string {
	gutter := r.muted.Render("│") + " "
	var out []string
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, gutter+strings.TrimRight(string(seg.Value(src)), "\n"))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) list(l *ast.List, src []byte, width, depth int, b *bytes.Buffer) {
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		prefix := strings.Repeat("  ", depth) + marker
		pw := uniseg.StringWidth(prefix)
		for ic := c.FirstChild(); ic != nil; ic = ic.NextSibling() {
			if sub, ok := ic.(*ast.List); ok {
				r.list(sub, src, width, depth+1, b)
				continue
			}
			r.item(b, prefix, r.block(ic, src, max(width-pw, 10)))
			prefix = strings.Repeat(" ", pw)
		}
	}
}

func (r *Renderer) item(b *bytes.Buffer, prefix, content string) {
	pad := strings.Repeat(" ", uniseg.StringWidth(prefix))
	for i, line := range strings.Split(content, "\n") {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(pad)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func (r *Renderer) inline(n ast.Node, src []byte) string {
	var b bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c, src)
	}
	return b.String()
}

func (r *Renderer) writeInline(b *bytes.Buffer, n ast.Node, src []byte) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(r.italic.Render(r.inline(n, src)))
		} else {
			b.WriteString(r.bold.Render(r.inline(n, src)))
		}
	case *extast.Strikethrough:
		b.WriteString(r.strike.Render(r.inline(n, src)))
	case *ast.CodeSpan:
		b.WriteString(r.code.Render(r.inline(n, src)))
	case *ast.Link:
		label := r.inline(n, src)
		dest := string(n.Destination)
		b.WriteString(r.link.Render(label))
		if label != dest {
			b.WriteString(" " + r.muted.Render("("+dest+")"))
		}
	case *ast.AutoLink:
		b.WriteString(r.link.Render(string(n.URL(src))))
	case *ast.Image:
		b.WriteString(r.muted.Render("[image: " + r.inline(n, src) + "]"))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.writeInline(b, c, src)
		}
	}
}
