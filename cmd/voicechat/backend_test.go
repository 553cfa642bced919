package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cosap/voicechat"
	"github.com/cosap/voicechat/gemini"
	"github.com/cosap/voicechat/openai"
	"github.com/cosap/voicechat/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestResolveBackend(t *testing.T) {
	t.Parallel()

	t.Run("webhook", func(t *testing.T) {
		t.Parallel()
		b, err := resolveBackend(context.Background(), defaultConfig(t.TempDir()), discard)
		require.NoError(t, err)
		assert.IsType(t, &webhook.Client{}, b.auth)
		assert.IsType(t, &webhook.Client{}, b.chat)
		assert.IsType(t, &webhook.Client{}, b.transcriber)
	})

	t.Run("openai keeps webhook sign-in", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig(t.TempDir())
		cfg.Backend = backendOpenAI
		cfg.OpenAIAPIKey = "sk-test"
		cfg.ChatModel = "gpt-4o"
		b, err := resolveBackend(context.Background(), cfg, discard)
		require.NoError(t, err)
		assert.IsType(t, &webhook.Client{}, b.auth)
		assert.IsType(t, &openai.Client{}, b.chat)
		assert.IsType(t, &openai.Client{}, b.transcriber)
	})

	t.Run("openai base url and default model", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/openai/v1/audio/transcriptions", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", r.FormValue("model"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"via base url"}`))
		}))
		defer srv.Close()

		cfg := defaultConfig(t.TempDir())
		cfg.Backend = backendOpenAI
		cfg.OpenAIAPIKey = "sk-test"
		cfg.OpenAIBaseURL = srv.URL + "/openai/v1"
		b, err := resolveBackend(context.Background(), cfg, discard)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "clip.wav")
		require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o600))
		h := voicechat.AudioHandle{Path: path, MimeType: "audio/wav", FileName: "clip.wav", Size: 12}
		text, err := b.transcriber.Transcribe(context.Background(), voicechat.NewTranscriptionRequest(h), voicechat.Credentials{})
		require.NoError(t, err)
		assert.Equal(t, "via base url", text)
	})

	t.Run("gemini", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig(t.TempDir())
		cfg.Backend = backendGemini
		cfg.GeminiAPIKey = "gk-test"
		b, err := resolveBackend(context.Background(), cfg, discard)
		require.NoError(t, err)
		assert.IsType(t, &gemini.Client{}, b.chat)
		assert.IsType(t, &gemini.Client{}, b.transcriber)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig(t.TempDir())
		cfg.Backend = "carrier-pigeon"
		_, err := resolveBackend(context.Background(), cfg, discard)
		assert.ErrorContains(t, err, "unknown backend")
	})
}
