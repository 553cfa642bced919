package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cosap/voicechat"
)

// parseHTTPError classifies a non-2xx response.
func parseHTTPError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return voicechat.StatusError(op, resp.StatusCode, errorMessage(body))
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return errorText(apiErr.Error)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// errorText reads the message out of an "error" field that may be a string
// or an object with a message.
func errorText(v any) string {
	switch e := v.(type) {
	case nil, bool:
		return ""
	case string:
		return strings.TrimSpace(e)
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return strings.TrimSpace(m)
		}
		return ""
	default:
		return fmt.Sprint(e)
	}
}

// reportsError reports whether an "error" field signals a failure.
func reportsError(v any) bool {
	switch e := v.(type) {
	case nil:
		return false
	case bool:
		return e
	case string:
		return strings.TrimSpace(e) != ""
	default:
		return true
	}
}
