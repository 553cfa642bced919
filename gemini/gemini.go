// Package gemini implements [voicechat.ChatClient] and
// [voicechat.Transcriber] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Transcription sends the
// recording inline with an instruction to return only the spoken words.
package gemini

const (
	defaultModel = "gemini-2.5-flash"

	transcriptionPrompt = "Transcribe the speech in this audio verbatim. " +
		"Reply with the transcript only, without commentary or formatting."
)
