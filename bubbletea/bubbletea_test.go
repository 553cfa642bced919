package bubbletea_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cosap/voicechat"
	bt "github.com/cosap/voicechat/bubbletea"
	"github.com/cosap/voicechat/mock"
	"github.com/stretchr/testify/require"
)

var signedIn = voicechat.Credentials{Token: voicechat.Present("tok"), UserID: voicechat.Present("7")}

// chatFunc returns a ChatClient answering every prompt with reply.
func chatFunc(reply string) *mock.ChatClient {
	return &mock.ChatClient{
		ChatFn: func(context.Context, string, voicechat.Credentials) (string, error) { return reply, nil },
	}
}

// newConfig returns a Config for a signed-in user chatting through chat.
func newConfig(chat voicechat.ChatClient) bt.Config {
	return bt.Config{
		Conversation: voicechat.NewConversation(chat, mock.Credentials(signedIn)),
		Auth:         &mock.Authenticator{},
		Store:        &mock.CredentialStore{},
		Credentials:  signedIn,
		Theme:        voicechat.DefaultTheme(),
	}
}

// voiceInput returns a VoiceInput whose recordings transcribe to text.
func voiceInput(t *testing.T, text string) *voicechat.VoiceInput {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording-1.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o600))
	h := voicechat.AudioHandle{Path: path, MimeType: "audio/wav", FileName: "recording-1.wav", Size: 8}

	mic := &mock.Microphone{
		RequestPermissionFn: func(context.Context) error { return nil },
		OpenFn: func(context.Context) (voicechat.Capture, error) {
			return &mock.Capture{
				FinishFn:  func(context.Context) (voicechat.AudioHandle, error) { return h, nil },
				DiscardFn: func() error { return nil },
			}, nil
		},
	}
	tr := &mock.Transcriber{
		TranscribeFn: func(context.Context, voicechat.TranscriptionRequest, voicechat.Credentials) (string, error) {
			return text, nil
		},
	}
	return voicechat.NewVoiceInput(voicechat.NewRecorder(mic), tr, mock.Credentials(signedIn))
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, cfg bt.Config) bt.Model {
	t.Helper()
	return updateModel(t, bt.New(cfg), tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// updateWithCmd sends a message and returns the updated Model and command.
func updateWithCmd(t *testing.T, m bt.Model, msg tea.Msg) (bt.Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model, cmd
}

// findMsg runs cmd and returns the first message of type T it yields,
// descending into batches.
func findMsg[T tea.Msg](t *testing.T, cmd tea.Cmd) (T, bool) {
	t.Helper()
	var zero T
	if cmd == nil {
		return zero, false
	}
	switch msg := cmd().(type) {
	case T:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if got, ok := findMsg[T](t, c); ok {
				return got, true
			}
		}
	}
	return zero, false
}

func typeText(t *testing.T, m bt.Model, s string) bt.Model {
	t.Helper()
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}
