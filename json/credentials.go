package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/cosap/voicechat"
)

// Keys used in the credential file.
const (
	TokenKey  = "userToken"
	UserIDKey = "userId"
)

// Interface compliance check.
var _ voicechat.CredentialStore = (*CredentialStore)(nil)

// CredentialStore keeps the auth token and user id in a flat JSON object on
// disk. A missing file or key reads as absent.
type CredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewCredentialStore returns a store backed by the file at path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Path returns the backing file path.
func (s *CredentialStore) Path() string { return s.path }

// Save stores token and userID, replacing any previous values.
func (s *CredentialStore) Save(ctx context.Context, token, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read()
	if err != nil {
		return err
	}
	kv[TokenKey] = token
	kv[UserIDKey] = userID
	return s.write(kv)
}

// Load returns the stored credentials.
func (s *CredentialStore) Load(ctx context.Context) (voicechat.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return voicechat.Credentials{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read()
	if err != nil {
		return voicechat.Credentials{}, err
	}
	return credentialsFrom(kv), nil
}

// Clear removes both keys. The file is deleted when nothing else remains.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read()
	if err != nil {
		return err
	}
	delete(kv, TokenKey)
	delete(kv, UserIDKey)
	if len(kv) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	}
	return s.write(kv)
}

func credentialsFrom(kv map[string]string) voicechat.Credentials {
	var c voicechat.Credentials
	if v, ok := kv[TokenKey]; ok {
		c.Token = voicechat.Present(v)
	}
	if v, ok := kv[UserIDKey]; ok {
		c.UserID = voicechat.Present(v)
	}
	return c
}

func (s *CredentialStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	kv := map[string]string{}
	if len(data) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return kv, nil
}

func (s *CredentialStore) write(kv map[string]string) error {
	data, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	return writeFile(s.path, data)
}
