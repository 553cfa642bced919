package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cosap/voicechat"
	"github.com/cosap/voicechat/gemini"
	"github.com/cosap/voicechat/openai"
	"github.com/cosap/voicechat/webhook"
)

// backend is the set of remote services the client talks to. Sign-in always
// goes through the webhook auth API; chat and transcription follow the
// configured backend.
type backend struct {
	auth        voicechat.Authenticator
	chat        voicechat.ChatClient
	transcriber voicechat.Transcriber
}

func resolveBackend(ctx context.Context, cfg config, logger *slog.Logger) (backend, error) {
	wh := webhook.New(
		webhook.WithBaseURL(cfg.WebhookBaseURL),
		webhook.WithAuthBaseURL(cfg.AuthBaseURL),
		webhook.WithAuthTimeout(cfg.ChatTimeout),
		webhook.WithRequireCredentials(cfg.StrictAuth),
		webhook.WithModel(cfg.Model),
		webhook.WithLogger(logger.With("component", "webhook")),
	)
	b := backend{auth: wh, chat: wh, transcriber: wh}

	switch cfg.Backend {
	case backendWebhook:
		return b, nil
	case backendOpenAI:
		opts := []openai.Option{openai.WithLogger(logger.With("component", "openai"))}
		if cfg.ChatModel != "" {
			opts = append(opts, openai.WithChatModel(cfg.ChatModel))
		}
		if cfg.Model != "" {
			opts = append(opts, openai.WithTranscriptionModel(cfg.Model))
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		c := openai.New(cfg.OpenAIAPIKey, opts...)
		b.chat, b.transcriber = c, c
		return b, nil
	case backendGemini:
		opts := []gemini.Option{gemini.WithLogger(logger.With("component", "gemini"))}
		if cfg.ChatModel != "" {
			opts = append(opts, gemini.WithModel(cfg.ChatModel))
		}
		c, err := gemini.New(ctx, cfg.GeminiAPIKey, opts...)
		if err != nil {
			return backend{}, fmt.Errorf("gemini: %w", err)
		}
		b.chat, b.transcriber = c, c
		return b, nil
	default:
		return backend{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
