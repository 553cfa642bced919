package bubbletea

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cosap/voicechat"
	"github.com/cosap/voicechat/markdown"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Screen identifies the visible screen.
type Screen int

const (
	ScreenSignIn Screen = iota
	ScreenChat
)

// Model is the Bubble Tea model for the voicechat TUI.
type Model struct {
	// Input is the chat input. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model

	conv    *voicechat.Conversation
	newConv func() *voicechat.Conversation
	voice   *voicechat.VoiceInput
	auth   voicechat.Authenticator
	store  voicechat.CredentialStore
	watch  <-chan voicechat.Credentials
	styles Styles
	md     *markdown.Renderer

	screen Screen
	form   signInForm
	creds  voicechat.Credentials

	blocks     []MessageBlock
	session    int // bumped on sign-out; replies from earlier sessions are dropped
	spinner    spinner.Model
	pending    bool
	micBusy    bool // Start in flight
	voiceState voicechat.VoiceState
	notice     string
	flash      string
	width      int
	ready      bool
}

// New creates a Model. The chat screen is shown first when cfg.Credentials
// is authenticated.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := NewStyles(cfg.Theme)
	sp.Style = styles.Muted

	m := Model{
		Input:      ti,
		conv:       cfg.Conversation,
		newConv:    cfg.NewConversation,
		voice:      cfg.Voice,
		auth:       cfg.Auth,
		store:      cfg.Store,
		watch:      cfg.Watch,
		styles:     styles,
		md:         markdown.New(cfg.Theme),
		form:       newSignInForm(),
		creds:      cfg.Credentials,
		spinner:    sp,
		voiceState: voicechat.VoiceIdle,
	}
	for _, msg := range cfg.Conversation.Messages() {
		m.blocks = append(m.blocks, m.blockFor(voicechat.Reply{Message: msg}))
	}
	if cfg.Credentials.Authenticated() {
		m = m.toChat()
	}
	return m
}

// Screen returns the visible screen.
func (m Model) Screen() Screen { return m.screen }

// Conversation returns the conversation of the signed-in user.
func (m Model) Conversation() *voicechat.Conversation { return m.conv }

// Pending reports whether a chat reply is outstanding.
func (m Model) Pending() bool { return m.pending }

// VoiceState returns the microphone state as last reported.
func (m Model) VoiceState() voicechat.VoiceState { return m.voiceState }

// Credentials returns the credentials of the signed-in user.
func (m Model) Credentials() voicechat.Credentials { return m.creds }

// Notice returns the status line error, if any.
func (m Model) Notice() string { return m.notice }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForCredentials(m.watch))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.voice != nil && m.voiceState == voicechat.VoiceRecording {
				m.voice.Abort()
			}
			return m, tea.Quit
		}
		if m.screen == ScreenSignIn {
			return m.handleSignInKey(msg)
		}
		return m.handleChatKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SignInMsg:
		m.form.busy = false
		if msg.Err != nil {
			m.form.err = signInError(msg.Err)
			m.form.password.SetValue("")
			return m, nil
		}
		m.creds = msg.Credentials
		m = m.toChat()
		m.flash = "Signed in."
		return m, textinput.Blink

	case SignOutMsg:
		if msg.Err != nil {
			m.notice = "Sign out failed: " + msg.Err.Error()
			return m, nil
		}
		return m.toSignIn("Signed out."), nil

	case CredentialsMsg:
		cmd := listenForCredentials(m.watch)
		switch {
		case m.screen == ScreenChat && !msg.Credentials.Authenticated():
			m = m.toSignIn("You have been signed out.")
		case m.screen == ScreenSignIn && !m.form.busy && msg.Credentials.Authenticated():
			m.creds = msg.Credentials
			m = m.toChat()
		}
		return m, cmd

	case ReplyMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.pending = false
		m.blocks = append(m.blocks, m.blockFor(msg.Reply))
		m = m.refresh()
		return m, m.Input.Focus()

	case RecordingMsg:
		m.micBusy = false
		if msg.Err != nil {
			m.notice = voicechat.UserMessage(msg.Err)
			return m, nil
		}
		m.voiceState = voicechat.VoiceRecording
		return m, nil

	case TranscriptMsg:
		m.voiceState = voicechat.VoiceIdle
		if msg.session != m.session {
			return m, nil
		}
		if msg.Err != nil {
			m.notice = voicechat.UserMessage(msg.Err)
			return m, nil
		}
		if msg.Text == "" {
			m.notice = "No speech detected."
			return m, nil
		}
		if m.pending || m.screen != ScreenChat {
			m.Input.SetValue(msg.Text)
			return m, nil
		}
		return m.submit(msg.Text)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.screen == ScreenChat {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
		if !m.pending {
			m.Input, cmd = m.Input.Update(msg)
			cmds = append(cmds, cmd)
		}
	} else {
		m.form, cmd = m.form.update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.screen == ScreenSignIn {
		return m.form.view(m.styles)
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) busy() bool {
	return m.pending || m.form.busy || m.voiceState == voicechat.VoiceTranscribing
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const inputHeight, statusHeight, borderHeight = 1, 1, 2
	vpHeight := max(msg.Height-inputHeight-statusHeight-borderHeight, 1)

	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width - 3
	m.form.username.Width = max(msg.Width-12, 10)
	m.form.password.Width = max(msg.Width-12, 10)
	return m.refresh()
}

func (m Model) handleSignInKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.busy {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
		// Two fields, so every direction toggles.
		m.form = m.form.setFocus((m.form.focus + 1) % 2)
		return m, nil
	case tea.KeyEnter:
		if m.form.focus == fieldUsername {
			m.form = m.form.setFocus(fieldPassword)
			return m, nil
		}
		m.form.busy = true
		m.form.err = ""
		m.form.info = ""
		return m, tea.Batch(
			signIn(m.auth, m.store, m.form.username.Value(), m.form.password.Value()),
			m.spinner.Tick,
		)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	m.form.err = ""
	return m, cmd
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch msg.Type {
	case tea.KeyEnter:
		if m.pending {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyCtrlR:
		return m.toggleMic()

	case tea.KeyEsc:
		if m.voice != nil && m.voiceState == voicechat.VoiceRecording {
			m.voice.Abort()
			m.voiceState = voicechat.VoiceIdle
			m.notice = ""
			m.flash = "Recording discarded."
		}
		return m, nil

	case tea.KeyCtrlO:
		if m.voice != nil && m.voiceState == voicechat.VoiceRecording {
			m.voice.Abort()
			m.voiceState = voicechat.VoiceIdle
		}
		return m, signOut(m.store)
	}

	m.notice = ""
	var cmd tea.Cmd
	var cmds []tea.Cmd
	// Character keys go to the input only; j/k would otherwise scroll.
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !m.pending {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) toggleMic() (tea.Model, tea.Cmd) {
	if m.voice == nil {
		m.notice = "Voice input is not available."
		return m, nil
	}
	if m.micBusy {
		return m, nil
	}
	switch m.voiceState {
	case voicechat.VoiceRecording:
		m.voiceState = voicechat.VoiceTranscribing
		return m, tea.Batch(stopRecording(m.voice, m.session), m.spinner.Tick)
	case voicechat.VoiceTranscribing:
		return m, nil
	}
	if m.pending {
		return m, nil
	}
	m.notice = ""
	m.micBusy = true
	return m, startRecording(m.voice)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	turn, err := m.conv.Begin(text)
	if errors.Is(err, voicechat.ErrReplyPending) {
		return m, nil
	}
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	if turn == nil {
		return m, nil
	}

	m.Input.SetValue("")
	m.notice = ""
	m.pending = true
	m.Input.Blur()
	m.blocks = append(m.blocks, NewUserBlock(turn.Request().Text, m.styles))
	m = m.refresh()
	return m, tea.Batch(resolve(turn, m.session), m.spinner.Tick)
}

func (m Model) toChat() Model {
	m.screen = ScreenChat
	m.form = newSignInForm()
	m.Input.Focus()
	return m
}

func (m Model) toSignIn(info string) Model {
	if m.voice != nil && m.voiceState == voicechat.VoiceRecording {
		m.voice.Abort()
		m.voiceState = voicechat.VoiceIdle
	}
	m.screen = ScreenSignIn
	m.creds = voicechat.Credentials{}
	m.session++
	m.blocks = nil
	m.pending = false
	m.Input.SetValue("")
	if m.newConv != nil {
		m.conv = m.newConv()
	}
	m = m.refresh()
	m.form = newSignInForm()
	m.form.info = info
	m.notice = ""
	m.flash = ""
	m.Input.Blur()
	if m.width > 0 {
		m.form.username.Width = max(m.width-12, 10)
		m.form.password.Width = max(m.width-12, 10)
	}
	return m
}

func (m Model) blockFor(r voicechat.Reply) MessageBlock {
	if r.Message.FromUser() {
		return NewUserBlock(r.Message.Text, m.styles)
	}
	return NewAssistantBlock(r, m.md, m.styles)
}

func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	parts := make([]string, 0, len(m.blocks))
	for _, block := range m.blocks {
		parts = append(parts, block.View(m.Viewport.Width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) statusLine() string {
	width := max(m.width, 20)
	fit := func(s string) string { return runewidth.Truncate(s, width, "…") }

	switch {
	case m.notice != "":
		return m.styles.Error.Render(fit(m.notice))
	case m.voiceState == voicechat.VoiceRecording:
		return m.styles.Recording.Render(fit("● Recording. ctrl+r to stop, esc to discard"))
	case m.voiceState == voicechat.VoiceTranscribing:
		return m.spinner.View() + m.styles.Muted.Render(fit("Transcribing..."))
	case m.pending:
		return m.spinner.View() + m.styles.Muted.Render(fit("Assistant is typing..."))
	case m.flash != "":
		return m.styles.Success.Render(fit(m.flash))
	}
	return m.styles.Muted.Render(fit("enter send · ctrl+r mic · ctrl+o sign out · ctrl+c quit"))
}
