// Package wav encodes captured PCM samples as WAV files and reads back their
// format.
package wav

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/youpy/go-wav"
)

// MimeType is the MIME type of files produced by Write.
const MimeType = "audio/wav"

const bitsPerSample = 16

// Info describes a WAV file.
type Info struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Duration      time.Duration
}

// ErrNotPCM is returned by Probe for WAV files that are not linear PCM.
var ErrNotPCM = errors.New("wav: not a PCM file")

// Write encodes interleaved 16-bit samples to path and returns the file
// size in bytes.
func Write(path string, samples []int16, sampleRate, channels int) (int64, error) {
	if channels < 1 || channels > 2 {
		return 0, fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return 0, fmt.Errorf("wav: create directories: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}

	frames := len(samples) / channels
	w := wav.NewWriter(f, uint32(frames), uint16(channels), uint32(sampleRate), bitsPerSample)
	out := make([]wav.Sample, frames)
	for i := range out {
		for ch := 0; ch < channels; ch++ {
			out[i].Values[ch] = int(samples[i*channels+ch])
		}
	}
	if err := w.WriteSamples(out); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("wav: write samples: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	return info.Size(), nil
}

// Duration returns how long n interleaved samples play for.
func Duration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := n / channels
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// Probe reads the format of the WAV file at path.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("wav: %w", err)
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return Info{}, fmt.Errorf("wav: read format: %w", err)
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		return Info{}, ErrNotPCM
	}
	d, err := r.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("wav: duration: %w", err)
	}
	return Info{
		SampleRate:    int(format.SampleRate),
		Channels:      int(format.NumChannels),
		BitsPerSample: int(format.BitsPerSample),
		Duration:      d,
	}, nil
}
