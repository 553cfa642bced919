package voicechat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Reply is the assistant message appended when a Turn resolves.
type Reply struct {
	Message Message
	// Fallback is set when the chat call failed or returned nothing and the
	// fallback text was used instead.
	Fallback bool
}

// Conversation is an ordered, append-only message history with at most one
// chat request in flight.
type Conversation struct {
	chat     ChatClient
	creds    CredentialLoader
	logger   *slog.Logger
	timeout  time.Duration
	fallback string
	newID    func() string
	now      func() time.Time
	onAppend func(Message)

	mu       sync.Mutex
	messages []Message
	pending  *Turn
}

// NewConversation returns a Conversation that sends through chat using the
// credentials loaded from creds at call time.
func NewConversation(chat ChatClient, creds CredentialLoader, opts ...Option) *Conversation {
	s := newSettings(DefaultChatTimeout, opts)
	c := &Conversation{
		chat:     chat,
		creds:    creds,
		logger:   s.logger,
		timeout:  s.timeout,
		fallback: s.fallback,
		newID:    s.newID,
		now:      s.now,
		onAppend: s.onAppend,
	}
	c.messages = append(c.messages, s.history...)
	return c
}

// Messages returns a copy of the history in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Pending reports whether a reply is outstanding.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Send appends text as a user message and waits for the reply. Blank text
// is ignored. Chat failures produce a fallback reply rather than an error;
// the only error is ErrReplyPending.
func (c *Conversation) Send(ctx context.Context, text string) (Reply, error) {
	turn, err := c.Begin(text)
	if err != nil || turn == nil {
		return Reply{}, err
	}
	return turn.Resolve(ctx), nil
}

// Begin appends text as a user message and marks a reply as pending. It
// returns a nil Turn for blank text and ErrReplyPending while another turn
// is outstanding.
func (c *Conversation) Begin(text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return nil, ErrReplyPending
	}
	msg := Message{
		ID:        c.newID(),
		Text:      text,
		Origin:    OriginUser,
		Timestamp: c.now(),
	}
	if err := msg.Validate(); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("user message: %w", err)
	}
	turn := &Turn{conv: c, request: msg}
	c.messages = append(c.messages, msg)
	c.pending = turn
	c.mu.Unlock()

	c.notify(msg)
	return turn, nil
}

func (c *Conversation) notify(m Message) {
	if c.onAppend != nil {
		c.onAppend(m)
	}
}

// Turn is one user message awaiting its reply.
type Turn struct {
	conv    *Conversation
	request Message

	once  sync.Once
	reply Reply
}

// Request returns the user message that started the turn.
func (t *Turn) Request() Message { return t.request }

// Resolve performs the chat call and appends the reply. Calling Resolve
// again returns the same reply.
func (t *Turn) Resolve(ctx context.Context) Reply {
	t.once.Do(func() { t.reply = t.resolve(ctx) })
	return t.reply
}

func (t *Turn) resolve(ctx context.Context) Reply {
	c := t.conv
	text, fallback := c.ask(ctx, t.request)

	msg := Message{
		ID:        c.newID(),
		Text:      text,
		Origin:    OriginAssistant,
		ReplyTo:   t.request.ID,
		Timestamp: c.now(),
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	if c.pending == t {
		c.pending = nil
	}
	c.mu.Unlock()

	c.notify(msg)
	return Reply{Message: msg, Fallback: fallback}
}

// ask returns the reply text and whether the fallback was used.
func (c *Conversation) ask(ctx context.Context, req Message) (string, bool) {
	creds, err := c.creds.Load(ctx)
	if err != nil {
		c.logger.Warn("loading credentials", "error", err)
		creds = Credentials{}
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.chat.Chat(cctx, req.Text, creds)
	if err != nil {
		c.logger.Error("chat request failed", "message_id", req.ID, "error", err, "elapsed", time.Since(start))
		return c.fallback, true
	}
	out = strings.TrimSpace(out)
	if out == "" {
		c.logger.Warn("chat returned empty output", "message_id", req.ID)
		return c.fallback, true
	}
	c.logger.Debug("chat reply received", "message_id", req.ID, "elapsed", time.Since(start))
	return out, false
}
