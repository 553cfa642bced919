package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cosap/voicechat"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	backendWebhook = "webhook"
	backendOpenAI  = "openai"
	backendGemini  = "gemini"
)

// config is the resolved configuration. Precedence, highest first: flags,
// environment, .env file, YAML file, defaults.
type config struct {
	Backend           string        `yaml:"backend"`
	AuthBaseURL       string        `yaml:"auth_base_url"`
	WebhookBaseURL    string        `yaml:"webhook_base_url"`
	Model             string        `yaml:"model"`
	ChatModel         string        `yaml:"chat_model"`
	FallbackMessage   string        `yaml:"fallback_message"`
	ChatTimeout       time.Duration `yaml:"chat_timeout"`
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`
	CredentialsPath   string        `yaml:"credentials_path"`
	RecordingsDir     string        `yaml:"recordings_dir"`
	KeepRecordings    bool          `yaml:"keep_recordings"`
	Microphone        bool          `yaml:"microphone"`
	Device            string        `yaml:"device"`
	LogLevel          string        `yaml:"log_level"`
	LogFile           string        `yaml:"log_file"`
	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	GeminiAPIKey      string        `yaml:"gemini_api_key"`
	StrictAuth        bool          `yaml:"strict_auth"`
	Transcript        string        `yaml:"transcript"`
}

func defaultConfig(home string) config {
	dir := filepath.Join(home, ".voicechat")
	return config{
		Backend:           backendWebhook,
		AuthBaseURL:       "http://localhost:8000/api",
		WebhookBaseURL:    "http://localhost:5678",
		FallbackMessage:   voicechat.DefaultFallback,
		ChatTimeout:       voicechat.DefaultChatTimeout,
		TranscribeTimeout: voicechat.DefaultTranscribeTimeout,
		CredentialsPath:   filepath.Join(dir, "credentials.json"),
		RecordingsDir:     filepath.Join(dir, "recordings"),
		Microphone:        true,
		LogLevel:          "info",
		LogFile:           filepath.Join(dir, "voicechat.log"),
	}
}

const usage = `Usage: voicechat [flags] [command]

Commands:
  chat               Sign in and chat (default)
  logout             Remove saved credentials
  devices            List audio input devices
  transcribe <file>  Transcribe an audio file and print the text

Flags:
`

// loadConfig resolves the configuration from args and the environment and
// returns it with the remaining positional arguments. Env vars are passed in
// through getenv; nothing here reads the process environment.
func loadConfig(args []string, getenv func(string) string, home string, stderr io.Writer) (config, []string, error) {
	cfg := defaultConfig(home)

	fs := flag.NewFlagSet("voicechat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Path to YAML config file (default ~/.voicechat/config.yaml)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	set := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}

	path := *configPath
	if path == "" {
		path = getenv("VOICECHAT_CONFIG")
	}
	if err := cfg.loadFile(path, filepath.Join(home, ".voicechat", "config.yaml")); err != nil {
		return config{}, nil, err
	}

	dotenv, err := godotenv.Read(*envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, nil, fmt.Errorf("read %s: %w", *envFile, err)
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return config{}, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if apply, ok := set[f.Name]; ok {
			apply(&cfg)
		}
	})
	return cfg, fs.Args(), nil
}

// loadFile decodes the YAML file at path. A missing file is an error only
// when path was given explicitly.
func (c *config) loadFile(path, defaultPath string) error {
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *config) applyEnv(lookup func(string) string) error {
	strs := map[string]*string{
		"VOICECHAT_BACKEND":          &c.Backend,
		"VOICECHAT_AUTH_BASE_URL":    &c.AuthBaseURL,
		"VOICECHAT_WEBHOOK_BASE_URL": &c.WebhookBaseURL,
		"VOICECHAT_MODEL":            &c.Model,
		"VOICECHAT_CHAT_MODEL":       &c.ChatModel,
		"VOICECHAT_FALLBACK_MESSAGE": &c.FallbackMessage,
		"VOICECHAT_CREDENTIALS":      &c.CredentialsPath,
		"VOICECHAT_RECORDINGS_DIR":   &c.RecordingsDir,
		"VOICECHAT_DEVICE":           &c.Device,
		"VOICECHAT_LOG_LEVEL":        &c.LogLevel,
		"VOICECHAT_LOG_FILE":         &c.LogFile,
		"VOICECHAT_TRANSCRIPT":       &c.Transcript,
		"OPENAI_API_KEY":             &c.OpenAIAPIKey,
		"OPENAI_BASE_URL":            &c.OpenAIBaseURL,
		"GEMINI_API_KEY":             &c.GeminiAPIKey,
	}
	for key, dst := range strs {
		if v := lookup(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"VOICECHAT_CHAT_TIMEOUT":       &c.ChatTimeout,
		"VOICECHAT_TRANSCRIBE_TIMEOUT": &c.TranscribeTimeout,
	}
	for key, dst := range durations {
		if v := lookup(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"VOICECHAT_KEEP_RECORDINGS": &c.KeepRecordings,
		"VOICECHAT_MICROPHONE":      &c.Microphone,
		"VOICECHAT_STRICT_AUTH":     &c.StrictAuth,
	}
	for key, dst := range bools {
		if v := lookup(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// bindFlags defines the per-key flags and returns, by flag name, how to
// apply each one to a config.
func bindFlags(fs *flag.FlagSet) map[string]func(*config) {
	var (
		backend      = fs.String("backend", "", "Backend: webhook, openai, gemini")
		authURL      = fs.String("auth-url", "", "Auth API base URL")
		webhookURL   = fs.String("webhook-url", "", "Webhook base URL")
		model        = fs.String("model", "", "Transcription model")
		chatModel    = fs.String("chat-model", "", "Chat model (openai, gemini)")
		fallback     = fs.String("fallback", "", "Reply shown when the chat call fails")
		chatTimeout  = fs.Duration("chat-timeout", 0, "Chat request timeout")
		trTimeout    = fs.Duration("transcribe-timeout", 0, "Transcription request timeout")
		credentials  = fs.String("credentials", "", "Credentials file")
		recordings   = fs.String("recordings", "", "Directory for temporary recordings")
		keep         = fs.Bool("keep-recordings", false, "Keep recordings after transcription")
		noMic        = fs.Bool("no-mic", false, "Disable voice input")
		device       = fs.String("device", "", "Input device name (substring match)")
		logLevel     = fs.String("log-level", "", "Log level: debug, info, warn, error")
		logFile      = fs.String("log", "", "Log file")
		strict       = fs.Bool("strict-auth", false, "Reject protected calls without a token")
		transcript   = fs.String("transcript", "", "Conversation file to resume and save")
		openaiAPIKey = fs.String("openai-api-key", "", "OpenAI API key (overrides OPENAI_API_KEY)")
		openaiURL    = fs.String("openai-url", "", "OpenAI-compatible API base URL, e.g. https://api.groq.com/openai/v1")
		geminiAPIKey = fs.String("gemini-api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	)
	return map[string]func(*config){
		"backend":            func(c *config) { c.Backend = *backend },
		"auth-url":           func(c *config) { c.AuthBaseURL = *authURL },
		"webhook-url":        func(c *config) { c.WebhookBaseURL = *webhookURL },
		"model":              func(c *config) { c.Model = *model },
		"chat-model":         func(c *config) { c.ChatModel = *chatModel },
		"fallback":           func(c *config) { c.FallbackMessage = *fallback },
		"chat-timeout":       func(c *config) { c.ChatTimeout = *chatTimeout },
		"transcribe-timeout": func(c *config) { c.TranscribeTimeout = *trTimeout },
		"credentials":        func(c *config) { c.CredentialsPath = *credentials },
		"recordings":         func(c *config) { c.RecordingsDir = *recordings },
		"keep-recordings":    func(c *config) { c.KeepRecordings = *keep },
		"no-mic":             func(c *config) { c.Microphone = !*noMic },
		"device":             func(c *config) { c.Device = *device },
		"log-level":          func(c *config) { c.LogLevel = *logLevel },
		"log":                func(c *config) { c.LogFile = *logFile },
		"strict-auth":        func(c *config) { c.StrictAuth = *strict },
		"transcript":         func(c *config) { c.Transcript = *transcript },
		"openai-api-key":     func(c *config) { c.OpenAIAPIKey = *openaiAPIKey },
		"openai-url":         func(c *config) { c.OpenAIBaseURL = *openaiURL },
		"gemini-api-key":     func(c *config) { c.GeminiAPIKey = *geminiAPIKey },
	}
}

// Validate reports the first invalid setting.
func (c config) Validate() error {
	switch c.Backend {
	case backendWebhook:
	case backendOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY not set (use -openai-api-key or the environment)")
		}
	case backendGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY not set (use -gemini-api-key or the environment)")
		}
	default:
		return fmt.Errorf("unknown backend %q: must be %q, %q or %q", c.Backend, backendWebhook, backendOpenAI, backendGemini)
	}
	for name, raw := range map[string]string{"auth_base_url": c.AuthBaseURL, "webhook_base_url": c.WebhookBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s: invalid URL %q", name, raw)
		}
	}
	if c.OpenAIBaseURL != "" {
		u, err := url.Parse(c.OpenAIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("openai_base_url: invalid URL %q", c.OpenAIBaseURL)
		}
	}
	if c.ChatTimeout <= 0 {
		return errors.New("chat_timeout must be positive")
	}
	if c.TranscribeTimeout <= 0 {
		return errors.New("transcribe_timeout must be positive")
	}
	if c.CredentialsPath == "" {
		return errors.New("credentials_path is required")
	}
	if c.Microphone && c.RecordingsDir == "" {
		return errors.New("recordings_dir is required when the microphone is enabled")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
