package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosap/voicechat"
	vcjson "github.com/cosap/voicechat/json"
	"github.com/cosap/voicechat/mock"
	"github.com/cosap/voicechat/wav"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	_, err := wav.Write(path, make([]int16, 16000), 16000, 1)
	require.NoError(t, err)
	return path
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestAudioHandle(t *testing.T) {
	t.Parallel()

	t.Run("wav is probed", func(t *testing.T) {
		t.Parallel()
		path := writeWAV(t)
		h, err := audioHandle(path)
		require.NoError(t, err)
		assert.Equal(t, wav.MimeType, h.MimeType)
		assert.Equal(t, "clip.wav", h.FileName)
		assert.Equal(t, time.Second, h.Duration)
		assert.Positive(t, h.Size)
	})

	t.Run("other formats by extension", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "voice.M4A", "data")
		h, err := audioHandle(path)
		require.NoError(t, err)
		assert.Equal(t, "audio/m4a", h.MimeType)
		assert.True(t, voicechat.IsAudioFormatSupported(h.MimeType))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "notes.txt", "data")
		_, err := audioHandle(path)
		assert.ErrorIs(t, err, voicechat.ErrInvalidAudio)
	})

	t.Run("corrupt wav", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "bad.wav", "not a wav")
		_, err := audioHandle(path)
		assert.ErrorIs(t, err, voicechat.ErrInvalidAudio)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := audioHandle(filepath.Join(t.TempDir(), "gone.wav"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRunTranscribe(t *testing.T) {
	t.Parallel()
	creds := voicechat.Credentials{Token: voicechat.Present("tok"), UserID: voicechat.Present("7")}

	t.Run("prints text", func(t *testing.T) {
		t.Parallel()
		path := writeWAV(t)
		tr := &mock.Transcriber{
			TranscribeFn: func(ctx context.Context, req voicechat.TranscriptionRequest, got voicechat.Credentials) (string, error) {
				assert.Equal(t, path, req.Audio.Path)
				assert.Equal(t, creds, got)
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return " hello \n", nil
			},
		}
		var out bytes.Buffer
		require.NoError(t, runTranscribe(context.Background(), tr, mock.Credentials(creds), path, time.Minute, &out))
		assert.Equal(t, "hello\n", out.String())
	})

	t.Run("actionable error", func(t *testing.T) {
		t.Parallel()
		tr := &mock.Transcriber{
			TranscribeFn: func(context.Context, voicechat.TranscriptionRequest, voicechat.Credentials) (string, error) {
				return "", voicechat.StatusError("transcribe", 413, "")
			},
		}
		err := runTranscribe(context.Background(), tr, mock.Credentials(creds), writeWAV(t), time.Minute, &bytes.Buffer{})
		require.ErrorIs(t, err, voicechat.ErrPayloadTooLarge)
		assert.Contains(t, err.Error(), "Audio file too large")
	})

	t.Run("empty file is rejected before upload", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "empty.mp3", "")
		err := runTranscribe(context.Background(), &mock.Transcriber{}, mock.Credentials(creds), path, time.Minute, &bytes.Buffer{})
		assert.ErrorIs(t, err, voicechat.ErrInvalidAudio)
	})
}

func TestLoadCredentials(t *testing.T) {
	t.Parallel()
	now := time.Now()

	t.Run("valid token is kept", func(t *testing.T) {
		t.Parallel()
		store := vcjson.NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
		tok := signedToken(t, now.Add(time.Hour))
		require.NoError(t, store.Save(context.Background(), tok, "7"))

		creds := loadCredentials(context.Background(), store, discard, now)
		assert.True(t, creds.Authenticated())
	})

	t.Run("expired token is cleared", func(t *testing.T) {
		t.Parallel()
		store := vcjson.NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
		require.NoError(t, store.Save(context.Background(), signedToken(t, now.Add(-time.Hour)), "7"))

		creds := loadCredentials(context.Background(), store, discard, now)
		assert.False(t, creds.Authenticated())

		saved, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.False(t, saved.Token.IsPresent())
	})

	t.Run("opaque token is kept", func(t *testing.T) {
		t.Parallel()
		store := vcjson.NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
		require.NoError(t, store.Save(context.Background(), "opaque", "7"))
		assert.True(t, loadCredentials(context.Background(), store, discard, now).Authenticated())
	})

	t.Run("load error means signed out", func(t *testing.T) {
		t.Parallel()
		store := &mock.CredentialStore{
			LoadFn: func(context.Context) (voicechat.Credentials, error) { return voicechat.Credentials{}, errors.New("corrupt") },
		}
		assert.False(t, loadCredentials(context.Background(), store, discard, now).Authenticated())
	})
}

func TestLoadHistory(t *testing.T) {
	t.Parallel()

	msgs, err := loadHistory("")
	require.NoError(t, err)
	assert.Nil(t, msgs)

	dir := t.TempDir()
	msgs, err = loadHistory(filepath.Join(dir, "new.json"))
	require.NoError(t, err)
	assert.Nil(t, msgs)

	m, err := voicechat.NewMessage(voicechat.OriginUser, "hi", time.Now())
	require.NoError(t, err)
	path := filepath.Join(dir, "t.json")
	require.NoError(t, vcjson.SaveTranscript(path, []voicechat.Message{m}))
	msgs, err = loadHistory(path)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, m.ID, msgs[0].ID)

	bad := writeFile(t, dir, "bad.json", "{")
	_, err = loadHistory(bad)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t.TempDir())
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "voicechat.log")
	cfg.LogLevel = "debug"

	logger, closeLog, err := newLogger(cfg)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	closeLog()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Contains(t, string(data), "k=v")
}
