// Package voicechat holds the domain types and interfaces of the voice chat
// client: messages, credentials, audio handles, the recorder and voice input
// state machines, and the conversation session. Implementations of the
// remote collaborators live in subpackages named after their dependency.
package voicechat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a single entry in a conversation. Messages are values: once
// constructed they are never modified, and a Conversation hands out copies.
type Message struct {
	ID        string
	Text      string
	Origin    Origin
	ReplyTo   string // ID of the user message this replies to; empty for user messages
	Timestamp time.Time
}

// NewMessage builds a validated Message with a fresh ID.
func NewMessage(origin Origin, text string, now time.Time) (Message, error) {
	m := Message{
		ID:        NewID(),
		Text:      text,
		Origin:    origin,
		Timestamp: now,
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// NewID returns a new opaque message identifier.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the required fields of a message.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message id is empty: %w", ErrValidation)
	}
	if !m.Origin.Valid() {
		return fmt.Errorf("unknown message origin %q: %w", m.Origin, ErrValidation)
	}
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("message text is empty: %w", ErrValidation)
	}
	if m.Origin == OriginUser && m.ReplyTo != "" {
		return fmt.Errorf("user message cannot reply to %q: %w", m.ReplyTo, ErrValidation)
	}
	return nil
}

// FromUser reports whether the message was written or spoken by the user.
func (m Message) FromUser() bool { return m.Origin == OriginUser }
