// Package openai implements [voicechat.ChatClient] and
// [voicechat.Transcriber] against OpenAI-compatible chat completion and
// audio transcription APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cosap/voicechat"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultChatModel          = openai.GPT4oMini
	defaultTranscriptionModel = openai.Whisper1
)

// Interface compliance checks.
var (
	_ voicechat.ChatClient  = (*Client)(nil)
	_ voicechat.Transcriber = (*Client)(nil)
)

// Client calls an OpenAI-compatible API. The user's voicechat credentials
// are not forwarded; the API key authenticates every call.
type Client struct {
	client          *openai.Client
	chatModel       string
	transcribeModel string
	systemPrompt    string
	logger          *slog.Logger
}

type config struct {
	baseURL         string
	httpClient      *http.Client
	chatModel       string
	transcribeModel string
	systemPrompt    string
	logger          *slog.Logger
}

// Option configures a [Client].
type Option func(*config)

// WithBaseURL sets the API base URL, e.g. for Groq or a local server.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithChatModel sets the chat completion model.
func WithChatModel(model string) Option {
	return func(c *config) { c.chatModel = model }
}

// WithTranscriptionModel sets the transcription model. It defaults to
// whisper-1 and takes precedence over the model named in the request.
func WithTranscriptionModel(model string) Option {
	return func(c *config) { c.transcribeModel = model }
}

// WithSystemPrompt prepends a system message to every chat request.
func WithSystemPrompt(prompt string) Option {
	return func(c *config) { c.systemPrompt = prompt }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New creates a [Client] with the given API key.
func New(apiKey string, opts ...Option) *Client {
	cfg := config{
		chatModel:       defaultChatModel,
		transcribeModel: defaultTranscriptionModel,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(&cfg)
	}
	oc := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.baseURL, "/")
	}
	if cfg.httpClient != nil {
		oc.HTTPClient = cfg.httpClient
	}
	return &Client{
		client:          openai.NewClientWithConfig(oc),
		chatModel:       cfg.chatModel,
		transcribeModel: cfg.transcribeModel,
		systemPrompt:    cfg.systemPrompt,
		logger:          cfg.logger,
	}
}

// Chat sends prompt as a single-turn chat completion.
func (c *Client) Chat(ctx context.Context, prompt string, _ voicechat.Credentials) (string, error) {
	var msgs []openai.ChatCompletionMessage
	if c.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", classify("chat", err))
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	c.logger.Debug("chat completion", "model", resp.Model, "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// Transcribe uploads the recording to the audio transcription endpoint.
func (c *Client) Transcribe(ctx context.Context, req voicechat.TranscriptionRequest, _ voicechat.Credentials) (string, error) {
	if err := voicechat.ValidateAudio(req.Audio); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	req = req.WithDefaults()
	model := c.transcribeModel
	if model == "" {
		model = req.Model
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: req.Audio.Path,
		Format:   openai.AudioResponseFormat(req.ResponseFormat),
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", classify("transcribe", err))
	}
	return resp.Text, nil
}

// classify maps go-openai errors onto voicechat error kinds.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := voicechat.StatusError(op, apiErr.HTTPStatusCode, apiErr.Message)
		e.Err = err
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		e := voicechat.StatusError(op, reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
		e.Err = err
		return e
	}
	return voicechat.NetworkError(op, err)
}
