package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cosap/voicechat"
)

// Interface compliance checks.
var (
	_ voicechat.Authenticator = (*Client)(nil)
	_ voicechat.ChatClient    = (*Client)(nil)
	_ voicechat.Transcriber   = (*Client)(nil)
)

// Client talks to the auth API and the webhook backend.
type Client struct {
	authBaseURL  string
	baseURL      string
	httpClient   *http.Client
	authTimeout  time.Duration
	requireCreds bool
	model        string
	logger       *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the webhook base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithAuthBaseURL sets the auth API base URL.
func WithAuthBaseURL(url string) Option {
	return func(c *Client) { c.authBaseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthTimeout bounds sign-in requests.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) { c.authTimeout = d }
}

// WithRequireCredentials rejects chat and transcription calls made without a
// token with [voicechat.ErrUnauthenticated] instead of sending empty headers.
func WithRequireCredentials(require bool) Option {
	return func(c *Client) { c.requireCreds = require }
}

// WithModel sets the transcription model sent when a request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new webhook [Client].
func New(opts ...Option) *Client {
	c := &Client{
		authBaseURL: defaultAuthBaseURL,
		baseURL:     defaultWebhookBaseURL,
		httpClient:  http.DefaultClient,
		authTimeout: defaultAuthTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// setAuthHeaders attaches the bearer token and user id. Absent values are
// sent empty.
func setAuthHeaders(h http.Header, creds voicechat.Credentials) {
	auth := ""
	if tok, ok := creds.Token.Get(); ok {
		auth = "Bearer " + tok
	}
	h.Set("Authorization", auth)
	h.Set("idUser", creds.UserID.String())
}

func (c *Client) checkCredentials(op string, creds voicechat.Credentials) error {
	if c.requireCreds && !creds.Authenticated() {
		return fmt.Errorf("webhook: %w", &voicechat.Error{Kind: voicechat.ErrUnauthenticated, Op: op})
	}
	return nil
}

// postJSON sends body as JSON and decodes a 2xx response into out.
func (c *Client) postJSON(ctx context.Context, op, url string, body, out any, creds *voicechat.Credentials) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("webhook: %s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("webhook: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if creds != nil {
		setAuthHeaders(req.Header, *creds)
	}
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "url", req.URL.Path, "error", err)
		return fmt.Errorf("webhook: %w", voicechat.NetworkError(op, err))
	}
	defer resp.Body.Close()
	c.logger.Debug("response received", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: %w", parseHTTPError(op, resp))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("webhook: %w", voicechat.NetworkError(op, err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("webhook: %w", &voicechat.Error{
			Kind: voicechat.ErrService,
			Op:   op,
			Err:  fmt.Errorf("decoding response: %w", err),
		})
	}
	return nil
}
