package voicechat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// RecordingStatus is the externally visible state of a Recorder.
type RecordingStatus string

const (
	StatusIdle      RecordingStatus = "idle"
	StatusRecording RecordingStatus = "recording"
	// StatusStopped is reported while a stopped capture is being finalized.
	StatusStopped RecordingStatus = "stopped"
)

// Microphone is an audio input device.
type Microphone interface {
	// RequestPermission returns an error wrapping ErrPermissionDenied when
	// access is refused.
	RequestPermission(ctx context.Context) error
	// Open starts capturing.
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open capture stream.
type Capture interface {
	// Finish stops capturing, finalizes the audio to storage and returns it.
	Finish(ctx context.Context) (AudioHandle, error)
	// Discard stops capturing and drops any captured audio.
	Discard() error
}

type recorderState int

const (
	recIdle recorderState = iota
	recStarting
	recRecording
	recStopping
)

// Recorder owns the capture lifecycle of one microphone. At most one
// recording is active at a time.
type Recorder struct {
	mic    Microphone
	logger *slog.Logger

	mu      sync.Mutex
	state   recorderState
	capture Capture
	gen     uint64 // bumped by Abort to invalidate an in-flight Start
}

// NewRecorder returns an idle Recorder over mic.
func NewRecorder(mic Microphone, opts ...Option) *Recorder {
	s := newSettings(0, opts)
	return &Recorder{mic: mic, logger: s.logger}
}

// Status returns the current recording status.
func (r *Recorder) Status() RecordingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case recRecording:
		return StatusRecording
	case recStopping:
		return StatusStopped
	default:
		return StatusIdle
	}
}

// Start requests microphone permission and begins capturing. Calling Start
// while a start is in progress or a recording is active does nothing. Start
// while the previous capture is being finalized returns ErrInvalidState.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case recStarting, recRecording:
		r.mu.Unlock()
		return nil
	case recStopping:
		r.mu.Unlock()
		return fmt.Errorf("recording is still finalizing: %w", ErrInvalidState)
	}
	r.state = recStarting
	gen := r.gen
	r.mu.Unlock()

	capture, err := r.open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// Aborted while starting.
		if capture != nil {
			_ = capture.Discard()
		}
		return nil
	}
	if err != nil {
		r.state = recIdle
		return err
	}
	r.state = recRecording
	r.capture = capture
	r.logger.Debug("recording started")
	return nil
}

func (r *Recorder) open(ctx context.Context) (Capture, error) {
	if err := r.mic.RequestPermission(ctx); err != nil {
		if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDevice) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	capture, err := r.mic.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrDevice) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDevice, err)
	}
	return capture, nil
}

// Stop ends the active recording and returns its audio. Stop from idle
// returns a zero handle. Stop while a start or another stop is in progress
// returns ErrInvalidState.
func (r *Recorder) Stop(ctx context.Context) (AudioHandle, error) {
	r.mu.Lock()
	switch r.state {
	case recIdle:
		r.mu.Unlock()
		return AudioHandle{}, nil
	case recStarting:
		r.mu.Unlock()
		return AudioHandle{}, fmt.Errorf("recording is still starting: %w", ErrInvalidState)
	case recStopping:
		r.mu.Unlock()
		return AudioHandle{}, fmt.Errorf("recording is already stopping: %w", ErrInvalidState)
	}
	capture := r.capture
	r.capture = nil
	r.state = recStopping
	r.mu.Unlock()

	h, err := capture.Finish(ctx)

	r.mu.Lock()
	r.state = recIdle
	r.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrDevice) {
			return AudioHandle{}, err
		}
		return AudioHandle{}, fmt.Errorf("%w: %w", ErrDevice, err)
	}
	r.logger.Debug("recording stopped", "path", h.Path, "size", h.Size, "duration", h.Duration)
	return h, nil
}

// Abort discards the active recording, if any, without producing audio.
func (r *Recorder) Abort() {
	r.mu.Lock()
	r.gen++
	var capture Capture
	switch r.state {
	case recRecording:
		capture = r.capture
		r.capture = nil
		r.state = recIdle
	case recStarting:
		r.state = recIdle
	}
	r.mu.Unlock()

	if capture != nil {
		if err := capture.Discard(); err != nil {
			r.logger.Warn("discarding recording", "error", err)
		}
	}
}
