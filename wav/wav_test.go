package wav_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosap/voicechat/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProbe(t *testing.T) {
	t.Parallel()
	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	path := filepath.Join(t.TempDir(), "rec", "recording-1.wav")

	size, err := wav.Write(path, samples, 16000, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(44+2*len(samples)), size)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := wav.Probe(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, got.SampleRate)
	assert.Equal(t, 1, got.Channels)
	assert.Equal(t, 16, got.BitsPerSample)
	assert.Equal(t, time.Second, got.Duration)
}

func TestWrite_Stereo(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "stereo.wav")
	_, err := wav.Write(path, make([]int16, 8000*2), 8000, 2)
	require.NoError(t, err)
	got, err := wav.Probe(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Channels)
	assert.Equal(t, time.Second, got.Duration)
}

func TestWrite_RejectsChannelCount(t *testing.T) {
	t.Parallel()
	_, err := wav.Write(filepath.Join(t.TempDir(), "x.wav"), nil, 16000, 3)
	assert.Error(t, err)
}

func TestProbe_NotWav(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "x.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a wav file"), 0o600))
	_, err := wav.Probe(path)
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 500*time.Millisecond, wav.Duration(8000, 16000, 1))
	assert.Equal(t, time.Second, wav.Duration(32000, 16000, 2))
	assert.Equal(t, time.Duration(0), wav.Duration(10, 0, 1))
}
