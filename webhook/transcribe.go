package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"github.com/cosap/voicechat"
)

// Transcribe uploads the recording as multipart form data and returns the
// transcribed text.
func (c *Client) Transcribe(ctx context.Context, req voicechat.TranscriptionRequest, creds voicechat.Credentials) (string, error) {
	if err := voicechat.ValidateAudio(req.Audio); err != nil {
		return "", fmt.Errorf("webhook: %w", err)
	}
	if err := c.checkCredentials("transcribe", creds); err != nil {
		return "", err
	}
	if req.Model == "" {
		req.Model = c.model
	}
	req = req.WithDefaults()

	body, contentType, err := buildMultipart(req)
	if err != nil {
		return "", fmt.Errorf("webhook: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, body)
	if err != nil {
		return "", fmt.Errorf("webhook: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	setAuthHeaders(httpReq.Header, creds)

	c.logger.Debug("uploading audio", "file", req.FileName, "mime", req.MimeType, "bytes", body.Len())

	var resp transcriptionResponse
	if err := c.do(httpReq, "transcribe", &resp); err != nil {
		return "", err
	}
	if reportsError(resp.Error) {
		return "", fmt.Errorf("webhook: %w", &voicechat.Error{
			Kind:    voicechat.ErrService,
			Op:      "transcribe",
			Message: errorText(resp.Error),
		})
	}
	return resp.result(), nil
}

// buildMultipart writes the form fields model, response_format and file, in
// that order.
func buildMultipart(req voicechat.TranscriptionRequest) (*bytes.Buffer, string, error) {
	f, err := os.Open(req.Audio.Path)
	if err != nil {
		return nil, "", fmt.Errorf("opening recording: %w: %w", voicechat.ErrInvalidAudio, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("model", req.Model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", req.ResponseFormat); err != nil {
		return nil, "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.FileName))
	h.Set("Content-Type", req.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading recording: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
