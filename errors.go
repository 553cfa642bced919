package voicechat

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes. Backend failures are reported as
// *Error values whose Kind is one of these.
var (
	// ErrValidation indicates a message or request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrPermissionDenied indicates microphone access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrDevice indicates the audio device could not be opened or driven.
	ErrDevice = errors.New("audio device error")

	// ErrInvalidAudio indicates an audio handle that cannot be uploaded.
	ErrInvalidAudio = errors.New("invalid audio")

	// ErrInvalidState indicates an operation that conflicts with the current
	// recording or transcribing state.
	ErrInvalidState = errors.New("invalid state")

	// ErrReplyPending indicates a send while a chat reply is outstanding.
	ErrReplyPending = errors.New("reply pending")

	// ErrNetwork indicates a connectivity failure or an expired timeout.
	ErrNetwork = errors.New("network failure")

	// ErrService indicates an explicit error payload or a non-2xx response.
	ErrService = errors.New("service error")

	// ErrNotFound indicates the endpoint does not exist (HTTP 404).
	ErrNotFound = errors.New("service not found")

	// ErrPayloadTooLarge indicates the upload was rejected for size (HTTP 413).
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrMisconfiguration indicates the request was missing a required field.
	ErrMisconfiguration = errors.New("service misconfiguration")

	// ErrUnauthenticated indicates a protected call without a token.
	ErrUnauthenticated = errors.New("not signed in")
)

// Error is a classified failure of a remote call. Kind is one of the
// sentinel errors above; errors.Is matches it, and any HTTP status of 400 or
// more also matches ErrService.
type Error struct {
	Kind    error
	Op      string // "sign in", "chat", "transcribe"
	Status  int    // HTTP status code, 0 when no response was received
	Message string // service-provided message, if any
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is reports non-2xx responses as ErrService regardless of their kind.
func (e *Error) Is(target error) bool {
	return target == ErrService && e.Status >= 400
}

// UserMessage returns the text shown to the user for a voice input or
// transcription failure.
func UserMessage(err error) string {
	var svc *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone permission is required to use voice input."
	case errors.Is(err, ErrDevice):
		return "Failed to start recording. Check your audio input device."
	case errors.Is(err, ErrInvalidAudio):
		return "The recording could not be read. Please try again."
	case errors.Is(err, ErrInvalidState):
		return "Please wait for the current transcription to finish."
	case errors.Is(err, ErrUnauthenticated):
		return "Please sign in again."
	case errors.Is(err, ErrNetwork):
		return "Network connection failed. Please check your internet connection."
	case errors.Is(err, ErrNotFound):
		return "Transcription service not found. Please contact support."
	case errors.Is(err, ErrPayloadTooLarge):
		return "Audio file too large. Please record a shorter message."
	case errors.Is(err, ErrMisconfiguration):
		return "Transcription service configuration error. Please contact support."
	case errors.As(err, &svc) && svc.Status == 0 && svc.Message != "":
		return svc.Message
	case errors.Is(err, ErrService) && errors.As(err, &svc) && svc.Status >= 500:
		return "Transcription service error. Please try again later."
	default:
		return "Failed to transcribe audio. Please try again."
	}
}

// StatusError classifies a non-2xx HTTP response from a remote call.
func StatusError(op string, status int, message string) *Error {
	var kind error
	switch {
	case status == 404:
		kind = ErrNotFound
	case status == 413:
		kind = ErrPayloadTooLarge
	case status >= 500:
		kind = ErrService
	case strings.Contains(strings.ToLower(message), "required property"):
		kind = ErrMisconfiguration
	default:
		kind = ErrService
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: message}
}

// NetworkError classifies a remote call that produced no response.
func NetworkError(op string, err error) *Error {
	return &Error{Kind: ErrNetwork, Op: op, Err: err}
}
