package voicechat

import (
	"io"
	"log/slog"
	"time"
)

// Default timeouts for remote calls.
const (
	DefaultChatTimeout       = 30 * time.Second
	DefaultTranscribeTimeout = 60 * time.Second
)

// DefaultFallback is the assistant reply used when the chat backend fails.
const DefaultFallback = "Sorry, something went wrong. Please try again."

// Option configures a Recorder, VoiceInput or Conversation. Options that do
// not apply to the value being built are ignored.
type Option func(*settings)

type settings struct {
	logger   *slog.Logger
	timeout  time.Duration
	fallback string
	newID    func() string
	now      func() time.Time
	history  []Message
	onAppend func(Message)
	keep     bool
}

func newSettings(timeout time.Duration, opts []Option) settings {
	s := settings{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:  timeout,
		fallback: DefaultFallback,
		newID:    NewID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds each remote call. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFallback sets the assistant text used when a chat call fails.
func WithFallback(text string) Option {
	return func(s *settings) {
		if text != "" {
			s.fallback = text
		}
	}
}

// WithIDFunc sets the message ID generator.
func WithIDFunc(fn func() string) Option {
	return func(s *settings) { s.newID = fn }
}

// WithClock sets the source of message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithHistory seeds a conversation with previously saved messages.
func WithHistory(msgs []Message) Option {
	return func(s *settings) { s.history = msgs }
}

// WithAppendObserver registers fn to be called after every append. It is
// called without the conversation lock held.
func WithAppendObserver(fn func(Message)) Option {
	return func(s *settings) { s.onAppend = fn }
}

// WithKeepRecordings keeps audio files after transcription.
func WithKeepRecordings(keep bool) Option {
	return func(s *settings) { s.keep = keep }
}
