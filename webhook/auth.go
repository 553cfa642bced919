package webhook

import (
	"context"
	"fmt"

	"github.com/cosap/voicechat"
)

// SignIn exchanges a username and password for a token and user id.
func (c *Client) SignIn(ctx context.Context, username, password string) (string, string, error) {
	if c.authTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.authTimeout)
		defer cancel()
	}

	var resp loginResponse
	err := c.postJSON(ctx, "sign in", c.authBaseURL+loginPath, loginRequest{
		Username: username,
		Password: password,
	}, &resp, nil)
	if err != nil {
		return "", "", err
	}
	if resp.Token == "" {
		return "", "", fmt.Errorf("webhook: %w", &voicechat.Error{
			Kind:    voicechat.ErrService,
			Op:      "sign in",
			Message: "response did not include a token",
		})
	}
	c.logger.Info("signed in", "user_id", string(resp.ID))
	return resp.Token, string(resp.ID), nil
}
