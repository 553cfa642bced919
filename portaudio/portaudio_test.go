package portaudio_test

import (
	"strings"
	"testing"

	"github.com/cosap/voicechat/portaudio"
	pa "github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputDevices(t *testing.T) {
	t.Parallel()
	devices := []*pa.DeviceInfo{
		{Name: "Speakers", MaxOutputChannels: 2},
		{Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000},
		{Name: "USB Headset", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 44100},
	}
	got := portaudio.InputDevices(devices, "USB Headset")
	require.Len(t, got, 2)
	assert.Equal(t, portaudio.Device{Index: 1, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000}, got[0])
	assert.Equal(t, 2, got[1].Index)
	assert.True(t, got[1].Default)
}

func TestMatchesDevice(t *testing.T) {
	t.Parallel()
	assert.True(t, portaudio.MatchesDevice("USB Headset", "usb"))
	assert.True(t, portaudio.MatchesDevice("Built-in Microphone", "MICRO"))
	assert.False(t, portaudio.MatchesDevice("Speakers", "usb"))
}

func TestRecordingName(t *testing.T) {
	t.Parallel()
	a := portaudio.RecordingName()
	b := portaudio.RecordingName()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "recording-"))
	assert.True(t, strings.HasSuffix(a, ".wav"))
}

func TestNew_DoesNotTouchHardware(t *testing.T) {
	t.Parallel()
	m := portaudio.New(t.TempDir(), portaudio.WithDevice("usb"), portaudio.WithSampleRate(44100))
	assert.NoError(t, m.Close())
}
