package json

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cosap/voicechat"
)

// transcriptEnvelope is the v1 wire format for a saved conversation.
type transcriptEnvelope struct {
	Version   int          `json:"version"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	Text      string    `json:"text"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalTranscript serializes messages in v1 envelope format.
func MarshalTranscript(msgs []voicechat.Message, updatedAt time.Time) ([]byte, error) {
	env := transcriptEnvelope{
		Version:   1,
		UpdatedAt: updatedAt,
		Messages:  make([]messageDTO, len(msgs)),
	}
	for i, m := range msgs {
		env.Messages[i] = messageDTO{
			ID:        m.ID,
			Origin:    string(m.Origin),
			Text:      m.Text,
			ReplyTo:   m.ReplyTo,
			Timestamp: m.Timestamp,
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes and validates messages in v1 envelope
// format.
func UnmarshalTranscript(data []byte) ([]voicechat.Message, error) {
	var env transcriptEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]voicechat.Message, len(env.Messages))
	for i, dto := range env.Messages {
		m := voicechat.Message{
			ID:        dto.ID,
			Origin:    voicechat.Origin(dto.Origin),
			Text:      dto.Text,
			ReplyTo:   dto.ReplyTo,
			Timestamp: dto.Timestamp,
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = m
	}
	return msgs, nil
}

// SaveTranscript writes messages to path.
func SaveTranscript(path string, msgs []voicechat.Message) error {
	data, err := MarshalTranscript(msgs, time.Now())
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFile(path, data)
}

// LoadTranscript reads messages from path.
func LoadTranscript(path string) ([]voicechat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}
