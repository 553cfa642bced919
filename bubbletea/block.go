package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/cosap/voicechat"
	"github.com/cosap/voicechat/markdown"
)

// MessageBlock is a renderable element in the conversation. View takes a
// width so the root model controls layout.
type MessageBlock interface {
	View(width int) string
}

var (
	_ MessageBlock = (*UserBlock)(nil)
	_ MessageBlock = (*AssistantBlock)(nil)
)

// UserBlock renders a user message with a "> " prefix.
type UserBlock struct {
	text   string
	styles Styles
}

// NewUserBlock creates a UserBlock.
func NewUserBlock(text string, styles Styles) *UserBlock {
	return &UserBlock{text: text, styles: styles}
}

func (b *UserBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.text
	return lipgloss.NewStyle().Width(width).Render(content)
}

// AssistantBlock renders an assistant reply as markdown. Fallback replies
// are shown as plain muted text.
type AssistantBlock struct {
	text     string
	fallback bool
	md       *markdown.Renderer
	styles   Styles
}

// NewAssistantBlock creates an AssistantBlock.
func NewAssistantBlock(reply voicechat.Reply, md *markdown.Renderer, styles Styles) *AssistantBlock {
	return &AssistantBlock{text: reply.Message.Text, fallback: reply.Fallback, md: md, styles: styles}
}

func (b *AssistantBlock) View(width int) string {
	if b.fallback {
		return lipgloss.NewStyle().Width(width).Render(b.styles.Fallback.Render(b.text))
	}
	return b.md.Render(b.text, width)
}
