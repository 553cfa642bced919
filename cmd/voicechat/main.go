// Command voicechat is a terminal voice-chat client for the webhook backend.
//
// Usage:
//
//	voicechat [flags] [chat|logout|devices|transcribe <file>]
//
// Configuration is read from ~/.voicechat/config.yaml, a .env file, the
// environment and flags, in increasing order of precedence. Run with -h for
// the flag list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cosap/voicechat"
	bt "github.com/cosap/voicechat/bubbletea"
	"github.com/cosap/voicechat/fs"
	vcjson "github.com/cosap/voicechat/json"
	"github.com/cosap/voicechat/jwt"
	"github.com/cosap/voicechat/portaudio"
	"github.com/cosap/voicechat/wav"
)

// Recordings older than this are left over from crashed sessions.
const staleRecordingAge = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "voicechat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfg, args, err := loadConfig(os.Args[1:], os.Getenv, home, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := vcjson.NewCredentialStore(cfg.CredentialsPath)

	cmd := "chat"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "chat":
		return runChat(ctx, cfg, store, logger)
	case "logout":
		if err := voicechat.SignOut(ctx, store); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Signed out.")
		return nil
	case "devices":
		return runDevices(os.Stdout)
	case "transcribe":
		if len(args) != 1 {
			return errors.New("usage: voicechat transcribe <file>")
		}
		b, err := resolveBackend(ctx, cfg, logger)
		if err != nil {
			return err
		}
		return runTranscribe(ctx, b.transcriber, store, args[0], cfg.TranscribeTimeout, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runChat(ctx context.Context, cfg config, store *vcjson.CredentialStore, logger *slog.Logger) error {
	if removed, err := fs.PruneRecordings(cfg.RecordingsDir, staleRecordingAge, time.Now()); err != nil {
		logger.Warn("pruning recordings", "error", err)
	} else if len(removed) > 0 {
		logger.Info("pruned stale recordings", "count", len(removed))
	}

	creds := loadCredentials(ctx, store, logger, time.Now())

	b, err := resolveBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}

	history, err := loadHistory(cfg.Transcript)
	if err != nil {
		return err
	}
	convOpts := []voicechat.Option{
		voicechat.WithLogger(logger.With("component", "conversation")),
		voicechat.WithTimeout(cfg.ChatTimeout),
		voicechat.WithFallback(cfg.FallbackMessage),
	}
	conv := voicechat.NewConversation(b.chat, store, append(convOpts, voicechat.WithHistory(history))...)
	newConversation := func() *voicechat.Conversation {
		return voicechat.NewConversation(b.chat, store, convOpts...)
	}

	var voice *voicechat.VoiceInput
	if cfg.Microphone {
		mic := portaudio.New(cfg.RecordingsDir,
			portaudio.WithDevice(cfg.Device),
			portaudio.WithLogger(logger.With("component", "portaudio")),
		)
		defer func() {
			if err := mic.Close(); err != nil {
				logger.Warn("closing microphone", "error", err)
			}
		}()
		voice = voicechat.NewVoiceInput(
			voicechat.NewRecorder(mic, voicechat.WithLogger(logger.With("component", "recorder"))),
			b.transcriber, store,
			voicechat.WithLogger(logger.With("component", "voice")),
			voicechat.WithTimeout(cfg.TranscribeTimeout),
			voicechat.WithKeepRecordings(cfg.KeepRecordings),
		)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	watch, err := store.Watch(watchCtx, logger.With("component", "credentials"))
	if err != nil {
		logger.Warn("watching credentials", "error", err)
	}

	model := bt.New(bt.Config{
		Conversation:    conv,
		NewConversation: newConversation,
		Voice:           voice,
		Auth:            b.auth,
		Store:           store,
		Watch:           watch,
		Credentials:     creds,
		Theme:           voicechat.DefaultTheme(),
	})
	final, err := bt.Run(ctx, model)
	if err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// After a sign-out only the last user's conversation is saved.
	if cfg.Transcript != "" {
		if err := vcjson.SaveTranscript(cfg.Transcript, final.Conversation().Messages()); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
	}
	return nil
}

// loadCredentials returns the saved credentials, clearing them first when
// the token has expired.
func loadCredentials(ctx context.Context, store voicechat.CredentialStore, logger *slog.Logger, now time.Time) voicechat.Credentials {
	creds, err := store.Load(ctx)
	if err != nil {
		logger.Warn("loading credentials", "error", err)
		return voicechat.Credentials{}
	}
	token, ok := creds.Token.Get()
	if !ok || !jwt.Expired(token, now, 30*time.Second) {
		return creds
	}
	logger.Info("saved token expired")
	if err := store.Clear(ctx); err != nil {
		logger.Warn("clearing expired credentials", "error", err)
	}
	return voicechat.Credentials{}
}

func loadHistory(path string) ([]voicechat.Message, error) {
	if path == "" {
		return nil, nil
	}
	msgs, err := vcjson.LoadTranscript(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return msgs, nil
}

func runDevices(w io.Writer) error {
	devices, err := portaudio.ListInputDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "No input devices found.")
		return nil
	}
	for _, d := range devices {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s (%d ch, %.0f Hz)\n", mark, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return nil
}

func runTranscribe(ctx context.Context, tr voicechat.Transcriber, creds voicechat.CredentialLoader, path string, timeout time.Duration, w io.Writer) error {
	h, err := audioHandle(path)
	if err != nil {
		return err
	}
	if err := voicechat.ValidateAudio(h); err != nil {
		return err
	}

	c, err := creds.Load(ctx)
	if err != nil {
		c = voicechat.Credentials{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := tr.Transcribe(ctx, voicechat.NewTranscriptionRequest(h), c)
	if err != nil {
		return fmt.Errorf("%s (%w)", voicechat.UserMessage(err), err)
	}
	fmt.Fprintln(w, strings.TrimSpace(text))
	return nil
}

var mimeTypes = map[string]string{
	".m4a":  "audio/m4a",
	".mp3":  "audio/mp3",
	".wav":  wav.MimeType,
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".mp4":  "audio/mp4",
}

// audioHandle describes the file at path. WAV files are probed for their
// duration.
func audioHandle(path string) (voicechat.AudioHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return voicechat.AudioHandle{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		return voicechat.AudioHandle{}, fmt.Errorf("%s: unsupported audio format %q: %w", path, ext, voicechat.ErrInvalidAudio)
	}
	h := voicechat.AudioHandle{
		Path:     path,
		MimeType: mimeType,
		FileName: filepath.Base(path),
		Size:     info.Size(),
	}
	if mimeType == wav.MimeType {
		probe, err := wav.Probe(path)
		if err != nil {
			return voicechat.AudioHandle{}, fmt.Errorf("%w: %w", voicechat.ErrInvalidAudio, err)
		}
		h.Duration = probe.Duration
	}
	return h, nil
}

// newLogger returns a text logger writing to the configured log file. The
// TUI owns the terminal, so nothing is logged to stderr.
func newLogger(cfg config) (*slog.Logger, func(), error) {
	level, err := cfg.level()
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
