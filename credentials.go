package voicechat

import (
	"context"
	"fmt"
	"strings"
)

// Credential is an optional string value. The zero value is absent, which
// is distinct from a present empty string.
type Credential struct {
	value string
	ok    bool
}

// Present returns a Credential holding v.
func Present(v string) Credential { return Credential{value: v, ok: true} }

// Absent returns a Credential holding no value.
func Absent() Credential { return Credential{} }

// Get returns the value and whether it is present.
func (c Credential) Get() (string, bool) { return c.value, c.ok }

// IsPresent reports whether a value was stored.
func (c Credential) IsPresent() bool { return c.ok }

// String returns the value, or "" when absent.
func (c Credential) String() string { return c.value }

// Credentials is the auth token and user id pair attached to protected calls.
type Credentials struct {
	Token  Credential
	UserID Credential
}

// Authenticated reports whether a non-empty token is present.
func (c Credentials) Authenticated() bool {
	tok, ok := c.Token.Get()
	return ok && tok != ""
}

// CredentialStore persists credentials across runs.
type CredentialStore interface {
	Save(ctx context.Context, token, userID string) error
	// Load returns each field as absent if it was never saved or was cleared.
	Load(ctx context.Context) (Credentials, error)
	Clear(ctx context.Context) error
}

// CredentialLoader is the read side of a CredentialStore. Networked
// operations take it so they read credentials at call time.
type CredentialLoader interface {
	Load(ctx context.Context) (Credentials, error)
}

// Authenticator exchanges a username and password for credentials.
type Authenticator interface {
	SignIn(ctx context.Context, username, password string) (token, userID string, err error)
}

// SignIn authenticates and persists the resulting credentials.
func SignIn(ctx context.Context, auth Authenticator, store CredentialStore, username, password string) (Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Credentials{}, fmt.Errorf("username and password are required: %w", ErrValidation)
	}
	token, userID, err := auth.SignIn(ctx, username, password)
	if err != nil {
		return Credentials{}, err
	}
	if err := store.Save(ctx, token, userID); err != nil {
		return Credentials{}, fmt.Errorf("saving credentials: %w", err)
	}
	return Credentials{Token: Present(token), UserID: Present(userID)}, nil
}

// SignOut removes any persisted credentials.
func SignOut(ctx context.Context, store CredentialStore) error {
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}
