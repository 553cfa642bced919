package voicechat

import "context"

// Defaults applied to empty TranscriptionRequest fields.
const (
	DefaultMimeType            = "audio/m4a"
	DefaultFileName            = "recording.m4a"
	DefaultTranscriptionModel  = "whisper-large-v3-turbo"
	DefaultTranscriptionFormat = "json"
)

// TranscriptionRequest describes one upload of recorded audio.
type TranscriptionRequest struct {
	Audio          AudioHandle
	MimeType       string
	FileName       string
	Model          string
	ResponseFormat string
}

// NewTranscriptionRequest builds a request for h, taking the MIME type and
// file name from the handle.
func NewTranscriptionRequest(h AudioHandle) TranscriptionRequest {
	return TranscriptionRequest{
		Audio:    h,
		MimeType: h.MimeType,
		FileName: h.FileName,
	}
}

// WithDefaults returns a copy of r with empty fields set to their defaults.
func (r TranscriptionRequest) WithDefaults() TranscriptionRequest {
	if r.MimeType == "" {
		r.MimeType = DefaultMimeType
	}
	if r.FileName == "" {
		r.FileName = DefaultFileName
	}
	if r.Model == "" {
		r.Model = DefaultTranscriptionModel
	}
	if r.ResponseFormat == "" {
		r.ResponseFormat = DefaultTranscriptionFormat
	}
	return r
}

// Transcriber turns recorded audio into text. Implementations validate the
// audio before uploading and report failures as *Error values.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest, creds Credentials) (string, error)
}

// ChatClient sends a prompt to the chat backend and returns its reply.
type ChatClient interface {
	Chat(ctx context.Context, prompt string, creds Credentials) (string, error)
}
