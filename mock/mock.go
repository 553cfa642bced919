// Package mock provides test doubles for voicechat interfaces using function fields.
package mock

import (
	"context"

	"github.com/cosap/voicechat"
)

// Interface compliance checks.
var (
	_ voicechat.ChatClient      = (*ChatClient)(nil)
	_ voicechat.Transcriber     = (*Transcriber)(nil)
	_ voicechat.CredentialStore = (*CredentialStore)(nil)
	_ voicechat.Authenticator   = (*Authenticator)(nil)
	_ voicechat.Microphone      = (*Microphone)(nil)
	_ voicechat.Capture         = (*Capture)(nil)
)

// ChatClient is a test double for voicechat.ChatClient.
// Set ChatFn before calling Chat.
type ChatClient struct {
	ChatFn func(ctx context.Context, prompt string, creds voicechat.Credentials) (string, error)
}

// Chat delegates to ChatFn.
func (c *ChatClient) Chat(ctx context.Context, prompt string, creds voicechat.Credentials) (string, error) {
	return c.ChatFn(ctx, prompt, creds)
}

// Transcriber is a test double for voicechat.Transcriber.
// Set TranscribeFn before calling Transcribe.
type Transcriber struct {
	TranscribeFn func(ctx context.Context, req voicechat.TranscriptionRequest, creds voicechat.Credentials) (string, error)
}

// Transcribe delegates to TranscribeFn.
func (t *Transcriber) Transcribe(ctx context.Context, req voicechat.TranscriptionRequest, creds voicechat.Credentials) (string, error) {
	return t.TranscribeFn(ctx, req, creds)
}

// CredentialStore is a test double for voicechat.CredentialStore.
// Set the function fields for the methods you need.
type CredentialStore struct {
	SaveFn  func(ctx context.Context, token, userID string) error
	LoadFn  func(ctx context.Context) (voicechat.Credentials, error)
	ClearFn func(ctx context.Context) error
}

// Save delegates to SaveFn.
func (s *CredentialStore) Save(ctx context.Context, token, userID string) error {
	return s.SaveFn(ctx, token, userID)
}

// Load delegates to LoadFn.
func (s *CredentialStore) Load(ctx context.Context) (voicechat.Credentials, error) {
	return s.LoadFn(ctx)
}

// Clear delegates to ClearFn.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.ClearFn(ctx)
}

// Authenticator is a test double for voicechat.Authenticator.
// Set SignInFn before calling SignIn.
type Authenticator struct {
	SignInFn func(ctx context.Context, username, password string) (string, string, error)
}

// SignIn delegates to SignInFn.
func (a *Authenticator) SignIn(ctx context.Context, username, password string) (string, string, error) {
	return a.SignInFn(ctx, username, password)
}

// Microphone is a test double for voicechat.Microphone.
// Set the function fields for the methods you need.
type Microphone struct {
	RequestPermissionFn func(ctx context.Context) error
	OpenFn              func(ctx context.Context) (voicechat.Capture, error)
}

// RequestPermission delegates to RequestPermissionFn.
func (m *Microphone) RequestPermission(ctx context.Context) error {
	return m.RequestPermissionFn(ctx)
}

// Open delegates to OpenFn.
func (m *Microphone) Open(ctx context.Context) (voicechat.Capture, error) {
	return m.OpenFn(ctx)
}

// Capture is a test double for voicechat.Capture.
// Set the function fields for the methods you need.
type Capture struct {
	FinishFn  func(ctx context.Context) (voicechat.AudioHandle, error)
	DiscardFn func() error
}

// Finish delegates to FinishFn.
func (c *Capture) Finish(ctx context.Context) (voicechat.AudioHandle, error) {
	return c.FinishFn(ctx)
}

// Discard delegates to DiscardFn.
func (c *Capture) Discard() error {
	return c.DiscardFn()
}

// Credentials returns a LoadFn-only store that always yields creds.
func Credentials(creds voicechat.Credentials) *CredentialStore {
	return &CredentialStore{
		LoadFn: func(context.Context) (voicechat.Credentials, error) { return creds, nil },
	}
}
