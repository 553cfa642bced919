package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/cosap/voicechat"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ voicechat.ChatClient  = (*Client)(nil)
	_ voicechat.Transcriber = (*Client)(nil)
)

// Client calls the Gemini API with an API key. The user's voicechat
// credentials are not forwarded.
type Client struct {
	client       *genai.Client
	model        string
	systemPrompt string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID used for both chat and transcription.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt sets the system instruction for chat requests.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		model:  defaultModel,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Chat sends prompt as a single-turn request.
func (c *Client) Chat(ctx context.Context, prompt string, _ voicechat.Credentials) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	var config *genai.GenerateContentConfig
	if c.systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(c.systemPrompt, genai.RoleUser),
		}
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", classify("chat", err))
	}
	return resp.Text(), nil
}

// Transcribe sends the recording inline and returns the model's transcript.
func (c *Client) Transcribe(ctx context.Context, req voicechat.TranscriptionRequest, _ voicechat.Credentials) (string, error) {
	if err := voicechat.ValidateAudio(req.Audio); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	req = req.WithDefaults()
	data, err := os.ReadFile(req.Audio.Path)
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %w", voicechat.ErrInvalidAudio, err)
	}
	c.logger.Debug("transcribing inline audio", "mime", req.MimeType, "bytes", len(data))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, TranscriptionContents(data, req.MimeType), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", classify("transcribe", err))
	}
	return resp.Text(), nil
}

// TranscriptionContents builds the request contents for transcribing audio.
// Exported for testing.
func TranscriptionContents(audio []byte, mimeType string) []*genai.Content {
	return []*genai.Content{{
		Role: string(genai.RoleUser),
		Parts: []*genai.Part{
			{Text: transcriptionPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}}
}

// classify maps genai errors onto voicechat error kinds.
func classify(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		e := voicechat.StatusError(op, apiErr.Code, apiErr.Message)
		e.Err = err
		return e
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		e := voicechat.StatusError(op, apiErrPtr.Code, apiErrPtr.Message)
		e.Err = err
		return e
	}
	return voicechat.NetworkError(op, err)
}
