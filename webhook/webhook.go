// Package webhook implements the voicechat collaborators against the HTTP
// webhook backend: password sign-in, the chat webhook and the multipart
// transcription webhook.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	defaultAuthBaseURL    = "http://localhost:8000/api"
	defaultWebhookBaseURL = "http://localhost:5678"
	defaultAuthTimeout    = 30 * time.Second

	loginPath      = "/login_check"
	chatPath       = "/webhook-test/cosap_chat"
	transcribePath = "/webhook-test/whisper-transcription"

	// maxErrorBody bounds how much of a failed response is read.
	maxErrorBody = 64 << 10
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	ID    userID `json:"id"`
}

// userID accepts either a JSON string or a JSON number.
type userID string

func (u *userID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*u = userID(n.String())
	return nil
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Output string `json:"output"`
}

type transcriptionResponse struct {
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
	Output     string `json:"output"`
	Error      any    `json:"error"`
}

// result returns the first non-empty of transcript, text and output.
func (r transcriptionResponse) result() string {
	for _, s := range []string{r.Transcript, r.Text, r.Output} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// apiErrorResponse covers the error shapes the backend and its proxies use.
type apiErrorResponse struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}
