package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosap/voicechat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// load runs loadConfig with an .env path that does not exist unless one is
// passed explicitly in args.
func load(t *testing.T, home string, args []string, vars map[string]string) (config, []string, error) {
	t.Helper()
	args = append([]string{"-env-file", filepath.Join(home, "missing.env")}, args...)
	return loadConfig(args, env(vars), home, io.Discard)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	cfg, rest, err := load(t, home, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, backendWebhook, cfg.Backend)
	assert.Equal(t, "http://localhost:8000/api", cfg.AuthBaseURL)
	assert.Equal(t, "http://localhost:5678", cfg.WebhookBaseURL)
	assert.Equal(t, voicechat.DefaultFallback, cfg.FallbackMessage)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 60*time.Second, cfg.TranscribeTimeout)
	assert.Equal(t, filepath.Join(home, ".voicechat", "credentials.json"), cfg.CredentialsPath)
	assert.True(t, cfg.Microphone)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	writeFile(t, home, ".voicechat/config.yaml", `
backend: webhook
webhook_base_url: http://yaml:1
auth_base_url: http://yaml:2/api
chat_timeout: 10s
fallback_message: from yaml
keep_recordings: true
`)
	dotenv := writeFile(t, home, "test.env", "VOICECHAT_WEBHOOK_BASE_URL=http://dotenv:1\nVOICECHAT_AUTH_BASE_URL=http://dotenv:2/api\nVOICECHAT_FALLBACK_MESSAGE=from dotenv\n")

	cfg, _, err := loadConfig(
		[]string{"-env-file", dotenv, "-webhook-url", "http://flag:1"},
		env(map[string]string{"VOICECHAT_AUTH_BASE_URL": "http://env:2/api"}),
		home, io.Discard,
	)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:1", cfg.WebhookBaseURL, "flag beats env, dotenv and yaml")
	assert.Equal(t, "http://env:2/api", cfg.AuthBaseURL, "env beats dotenv and yaml")
	assert.Equal(t, "from dotenv", cfg.FallbackMessage, "dotenv beats yaml")
	assert.Equal(t, 10*time.Second, cfg.ChatTimeout, "yaml beats defaults")
	assert.True(t, cfg.KeepRecordings)
}

func TestLoadConfig_ExplicitConfigPath(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	path := writeFile(t, home, "custom.yaml", "backend: openai\nopenai_api_key: sk-yaml\n")

	cfg, _, err := load(t, home, []string{"-config", path}, nil)
	require.NoError(t, err)
	assert.Equal(t, backendOpenAI, cfg.Backend)
	assert.Equal(t, "sk-yaml", cfg.OpenAIAPIKey)

	_, _, err = load(t, home, []string{"-config", filepath.Join(home, "nope.yaml")}, nil)
	assert.Error(t, err)
}

func TestLoadConfig_ConfigFromEnv(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	path := writeFile(t, home, "env.yaml", "device: usb\n")
	cfg, _, err := load(t, home, nil, map[string]string{"VOICECHAT_CONFIG": path})
	require.NoError(t, err)
	assert.Equal(t, "usb", cfg.Device)
}

func TestLoadConfig_UnknownYAMLKey(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	writeFile(t, home, ".voicechat/config.yaml", "colour: blue\n")
	_, _, err := load(t, home, nil, nil)
	assert.Error(t, err)
}

func TestLoadConfig_EnvParsing(t *testing.T) {
	t.Parallel()
	home := t.TempDir()

	cfg, _, err := load(t, home, nil, map[string]string{
		"VOICECHAT_TRANSCRIBE_TIMEOUT": "2m",
		"VOICECHAT_MICROPHONE":         "false",
		"VOICECHAT_STRICT_AUTH":        "true",
		"GEMINI_API_KEY":               "gk",
		"OPENAI_BASE_URL":              "https://api.groq.com/openai/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.TranscribeTimeout)
	assert.False(t, cfg.Microphone)
	assert.True(t, cfg.StrictAuth)
	assert.Equal(t, "gk", cfg.GeminiAPIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.OpenAIBaseURL)

	_, _, err = load(t, home, nil, map[string]string{"VOICECHAT_CHAT_TIMEOUT": "soon"})
	assert.ErrorContains(t, err, "VOICECHAT_CHAT_TIMEOUT")

	_, _, err = load(t, home, nil, map[string]string{"VOICECHAT_KEEP_RECORDINGS": "maybe"})
	assert.ErrorContains(t, err, "VOICECHAT_KEEP_RECORDINGS")
}

func TestLoadConfig_Flags(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	cfg, rest, err := load(t, home, []string{
		"-backend", "gemini", "-gemini-api-key", "gk",
		"-no-mic", "-chat-timeout", "5s", "-transcript", "t.json",
		"transcribe", "a.wav",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, backendGemini, cfg.Backend)
	assert.Equal(t, "gk", cfg.GeminiAPIKey)
	assert.False(t, cfg.Microphone)
	assert.Equal(t, 5*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "t.json", cfg.Transcript)
	assert.Equal(t, []string{"transcribe", "a.wav"}, rest)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		modify func(*config)
		want   string
	}{
		{"unknown backend", func(c *config) { c.Backend = "anthropic" }, "unknown backend"},
		{"openai without key", func(c *config) { c.Backend = backendOpenAI }, "OPENAI_API_KEY"},
		{"gemini without key", func(c *config) { c.Backend = backendGemini }, "GEMINI_API_KEY"},
		{"bad webhook url", func(c *config) { c.WebhookBaseURL = "localhost:5678" }, "webhook_base_url"},
		{"bad auth url", func(c *config) { c.AuthBaseURL = "ftp://x" }, "auth_base_url"},
		{"bad openai url", func(c *config) { c.OpenAIBaseURL = "api.groq.com" }, "openai_base_url"},
		{"zero chat timeout", func(c *config) { c.ChatTimeout = 0 }, "chat_timeout"},
		{"negative transcribe timeout", func(c *config) { c.TranscribeTimeout = -time.Second }, "transcribe_timeout"},
		{"no credentials path", func(c *config) { c.CredentialsPath = "" }, "credentials_path"},
		{"no recordings dir", func(c *config) { c.RecordingsDir = "" }, "recordings_dir"},
		{"bad log level", func(c *config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig(t.TempDir())
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	t.Run("recordings dir optional without microphone", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig(t.TempDir())
		cfg.Microphone = false
		cfg.RecordingsDir = ""
		assert.NoError(t, cfg.Validate())
	})
}
