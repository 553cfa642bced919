package voicechat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// AudioHandle refers to a finished recording on local storage. The zero
// value means no recording was produced.
type AudioHandle struct {
	Path     string
	MimeType string
	FileName string
	Size     int64
	Duration time.Duration
}

// IsZero reports whether h refers to no recording.
func (h AudioHandle) IsZero() bool { return h.Path == "" }

// Remove deletes the file behind h. Removing a zero handle or a file that is
// already gone is not an error.
func (h AudioHandle) Remove() error {
	if h.IsZero() {
		return nil
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing recording: %w", err)
	}
	return nil
}

var supportedAudioFormats = []string{
	"audio/m4a",
	"audio/mp3",
	"audio/wav",
	"audio/webm",
	"audio/ogg",
	"audio/mp4",
}

// SupportedAudioFormats returns the MIME types accepted for transcription.
func SupportedAudioFormats() []string {
	out := make([]string, len(supportedAudioFormats))
	copy(out, supportedAudioFormats)
	return out
}

// IsAudioFormatSupported reports whether mimeType can be transcribed. MIME
// parameters such as "; codecs=opus" are ignored.
func IsAudioFormatSupported(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	for _, f := range supportedAudioFormats {
		if f == base {
			return true
		}
	}
	return false
}

// ValidateAudio checks that h refers to a non-empty regular file of a
// supported type. An empty MimeType is accepted and defaulted at upload.
func ValidateAudio(h AudioHandle) error {
	if h.IsZero() {
		return fmt.Errorf("no recording: %w", ErrInvalidAudio)
	}
	info, err := os.Stat(h.Path)
	if err != nil {
		return fmt.Errorf("reading recording: %w: %w", ErrInvalidAudio, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("recording %s is not a regular file: %w", h.Path, ErrInvalidAudio)
	}
	if info.Size() == 0 {
		return fmt.Errorf("recording %s is empty: %w", h.Path, ErrInvalidAudio)
	}
	if h.MimeType != "" && !IsAudioFormatSupported(h.MimeType) {
		return fmt.Errorf("unsupported audio format %q: %w", h.MimeType, ErrInvalidAudio)
	}
	f, err := os.Open(h.Path)
	if err != nil {
		return fmt.Errorf("opening recording: %w: %w", ErrInvalidAudio, err)
	}
	return f.Close()
}
