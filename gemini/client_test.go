package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cosap/voicechat"
	"github.com/cosap/voicechat/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptionContents(t *testing.T) {
	t.Parallel()
	got := gemini.TranscriptionContents([]byte("RIFF"), "audio/wav")
	require.Len(t, got, 1)
	assert.Equal(t, "user", got[0].Role)
	require.Len(t, got[0].Parts, 2)
	assert.NotEmpty(t, got[0].Parts[0].Text)
	require.NotNil(t, got[0].Parts[1].InlineData)
	assert.Equal(t, "audio/wav", got[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("RIFF"), got[0].Parts[1].InlineData.Data)
}

func geminiServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const okResponse = `{"candidates":[{"content":{"role":"model","parts":[{"text":"hello there"}]},"finishReason":"STOP"}]}`

func TestClient_Chat(t *testing.T) {
	t.Parallel()
	srv := geminiServer(t, http.StatusOK, okResponse, func(r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "contents")
	})
	defer srv.Close()

	c, err := gemini.New(context.Background(), "key", gemini.WithBaseURL(srv.URL), gemini.WithModel("gemini-test"))
	require.NoError(t, err)
	out, err := c.Chat(context.Background(), "hi", voicechat.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestClient_Transcribe(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "recording-1.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o600))

	srv := geminiServer(t, http.StatusOK, okResponse, func(r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []map[string]any `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		require.Len(t, body.Contents[0].Parts, 2)
		assert.Contains(t, body.Contents[0].Parts[1], "inlineData")
	})
	defer srv.Close()

	c, err := gemini.New(context.Background(), "key", gemini.WithBaseURL(srv.URL))
	require.NoError(t, err)
	text, err := c.Transcribe(context.Background(),
		voicechat.NewTranscriptionRequest(voicechat.AudioHandle{Path: path, MimeType: "audio/wav"}),
		voicechat.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		srv := geminiServer(t, http.StatusServiceUnavailable,
			`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`, nil)
		defer srv.Close()

		c, err := gemini.New(context.Background(), "key", gemini.WithBaseURL(srv.URL))
		require.NoError(t, err)
		_, err = c.Chat(context.Background(), "hi", voicechat.Credentials{})
		assert.ErrorIs(t, err, voicechat.ErrService)
	})

	t.Run("invalid audio", func(t *testing.T) {
		t.Parallel()
		c, err := gemini.New(context.Background(), "key", gemini.WithBaseURL("http://127.0.0.1:1"))
		require.NoError(t, err)
		_, err = c.Transcribe(context.Background(), voicechat.TranscriptionRequest{}, voicechat.Credentials{})
		assert.ErrorIs(t, err, voicechat.ErrInvalidAudio)
	})
}
