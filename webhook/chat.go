package webhook

import (
	"context"

	"github.com/cosap/voicechat"
)

// Chat posts prompt to the chat webhook and returns its output. A response
// without output yields "".
func (c *Client) Chat(ctx context.Context, prompt string, creds voicechat.Credentials) (string, error) {
	if err := c.checkCredentials("chat", creds); err != nil {
		return "", err
	}
	var resp chatResponse
	if err := c.postJSON(ctx, "chat", c.baseURL+chatPath, chatRequest{Prompt: prompt}, &resp, &creds); err != nil {
		return "", err
	}
	return resp.Output, nil
}
