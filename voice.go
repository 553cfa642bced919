package voicechat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// VoiceState is the state of the microphone control.
type VoiceState string

const (
	VoiceIdle         VoiceState = "idle"
	VoiceRecording    VoiceState = "recording"
	VoiceTranscribing VoiceState = "transcribing"
)

// VoiceInput ties a Recorder to a Transcriber:
// idle --Start--> recording --Stop--> transcribing --done--> idle.
type VoiceInput struct {
	rec     *Recorder
	tr      Transcriber
	creds   CredentialLoader
	logger  *slog.Logger
	timeout time.Duration
	keep    bool

	mu    sync.Mutex
	state VoiceState
	gen   uint64 // bumped by Abort
}

// NewVoiceInput returns an idle VoiceInput.
func NewVoiceInput(rec *Recorder, tr Transcriber, creds CredentialLoader, opts ...Option) *VoiceInput {
	s := newSettings(DefaultTranscribeTimeout, opts)
	return &VoiceInput{
		rec:     rec,
		tr:      tr,
		creds:   creds,
		logger:  s.logger,
		timeout: s.timeout,
		keep:    s.keep,
		state:   VoiceIdle,
	}
}

// State returns the current state.
func (v *VoiceInput) State() VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Start begins recording. It does nothing while already recording and
// returns ErrInvalidState while a transcription is in progress.
func (v *VoiceInput) Start(ctx context.Context) error {
	v.mu.Lock()
	switch v.state {
	case VoiceRecording:
		v.mu.Unlock()
		return nil
	case VoiceTranscribing:
		v.mu.Unlock()
		return fmt.Errorf("transcription in progress: %w", ErrInvalidState)
	}
	gen := v.gen
	v.mu.Unlock()

	if err := v.rec.Start(ctx); err != nil {
		return err
	}

	v.mu.Lock()
	if v.state == VoiceIdle && v.gen == gen && v.rec.Status() == StatusRecording {
		v.state = VoiceRecording
	}
	v.mu.Unlock()
	return nil
}

// Stop ends the recording and returns its transcription. Stop from idle
// returns "" and no error.
func (v *VoiceInput) Stop(ctx context.Context) (string, error) {
	v.mu.Lock()
	if v.state != VoiceRecording {
		v.mu.Unlock()
		return "", nil
	}
	v.state = VoiceTranscribing
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.state = VoiceIdle
		v.mu.Unlock()
	}()

	h, err := v.rec.Stop(ctx)
	if err != nil {
		return "", err
	}
	if h.IsZero() {
		return "", nil
	}
	defer v.cleanup(h)

	creds, err := v.creds.Load(ctx)
	if err != nil {
		v.logger.Warn("loading credentials", "error", err)
		creds = Credentials{}
	}

	tctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	text, err := v.tr.Transcribe(tctx, NewTranscriptionRequest(h), creds)
	if err != nil {
		v.logger.Error("transcription failed", "error", err, "elapsed", time.Since(start))
		return "", err
	}
	v.logger.Info("transcription complete", "chars", len(text), "elapsed", time.Since(start))
	return strings.TrimSpace(text), nil
}

// Toggle starts recording from idle and stops it while recording, like a
// microphone button.
func (v *VoiceInput) Toggle(ctx context.Context) (string, error) {
	if v.State() == VoiceRecording {
		return v.Stop(ctx)
	}
	return "", v.Start(ctx)
}

// Abort drops an active recording without transcribing it.
func (v *VoiceInput) Abort() {
	v.mu.Lock()
	v.gen++
	if v.state == VoiceRecording {
		v.state = VoiceIdle
	}
	v.mu.Unlock()
	v.rec.Abort()
}

func (v *VoiceInput) cleanup(h AudioHandle) {
	if v.keep {
		return
	}
	if err := h.Remove(); err != nil {
		v.logger.Warn("removing recording", "path", h.Path, "error", err)
	}
}
