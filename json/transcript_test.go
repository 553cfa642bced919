package json_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cosap/voicechat"
	vcjson "github.com/cosap/voicechat/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_SaveLoad(t *testing.T) {
	t.Parallel()
	ts := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	msgs := []voicechat.Message{
		{ID: "u1", Text: "hello", Origin: voicechat.OriginUser, Timestamp: ts},
		{ID: "a1", Text: "hi!", Origin: voicechat.OriginAssistant, ReplyTo: "u1", Timestamp: ts.Add(time.Second)},
	}
	path := filepath.Join(t.TempDir(), "transcript.json")
	require.NoError(t, vcjson.SaveTranscript(path, msgs))

	got, err := vcjson.LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
}

func TestUnmarshalTranscript_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"wrong version", `{"version":2,"messages":[]}`},
		{"invalid message", `{"version":1,"messages":[{"id":"1","origin":"robot","text":"x"}]}`},
		{"empty text", `{"version":1,"messages":[{"id":"1","origin":"user","text":""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := vcjson.UnmarshalTranscript([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadTranscript_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := vcjson.LoadTranscript(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
