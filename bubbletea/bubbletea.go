// Package bubbletea provides the voicechat terminal UI: a sign-in form
// followed by a chat screen with a microphone toggle.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cosap/voicechat"
)

// Config wires the Model to the rest of the application.
type Config struct {
	Conversation *voicechat.Conversation
	// NewConversation starts a fresh conversation for whoever signs in after
	// a sign-out. When nil the current conversation is kept, but its earlier
	// messages are no longer shown.
	NewConversation func() *voicechat.Conversation
	// Voice may be nil when no microphone is available.
	Voice *voicechat.VoiceInput
	Auth  voicechat.Authenticator
	Store voicechat.CredentialStore
	// Watch delivers credential file changes. Optional.
	Watch <-chan voicechat.Credentials
	// Credentials loaded at startup. When authenticated the chat screen is
	// shown first.
	Credentials voicechat.Credentials
	Theme       voicechat.Theme
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits and returns the final model. Cancelling ctx quits the program.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// SignInMsg reports the outcome of a sign-in attempt.
type SignInMsg struct {
	Credentials voicechat.Credentials
	Err         error
}

// SignOutMsg reports the outcome of a sign-out.
type SignOutMsg struct {
	Err error
}

// ReplyMsg carries the resolved reply of a chat turn.
type ReplyMsg struct {
	Reply voicechat.Reply

	session int
}

// RecordingMsg reports whether recording started.
type RecordingMsg struct {
	Err error
}

// TranscriptMsg carries the transcription of a finished recording.
type TranscriptMsg struct {
	Text string
	Err  error

	session int
}

// CredentialsMsg reports a change to the persisted credentials.
type CredentialsMsg struct {
	Credentials voicechat.Credentials
}

func signIn(auth voicechat.Authenticator, store voicechat.CredentialStore, username, password string) tea.Cmd {
	return func() tea.Msg {
		creds, err := voicechat.SignIn(context.Background(), auth, store, username, password)
		return SignInMsg{Credentials: creds, Err: err}
	}
}

func signOut(store voicechat.CredentialStore) tea.Cmd {
	return func() tea.Msg {
		return SignOutMsg{Err: voicechat.SignOut(context.Background(), store)}
	}
}

func resolve(turn *voicechat.Turn, session int) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{Reply: turn.Resolve(context.Background()), session: session}
	}
}

func startRecording(v *voicechat.VoiceInput) tea.Cmd {
	return func() tea.Msg {
		return RecordingMsg{Err: v.Start(context.Background())}
	}
}

func stopRecording(v *voicechat.VoiceInput, session int) tea.Cmd {
	return func() tea.Msg {
		text, err := v.Stop(context.Background())
		return TranscriptMsg{Text: text, Err: err, session: session}
	}
}

// listenForCredentials waits for the next credential change. It returns nil
// once the channel is closed, which ends the subscription.
func listenForCredentials(ch <-chan voicechat.Credentials) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		creds, ok := <-ch
		if !ok {
			return nil
		}
		return CredentialsMsg{Credentials: creds}
	}
}
