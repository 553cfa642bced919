// Package portaudio implements [voicechat.Microphone] on top of PortAudio.
// Captured samples are buffered in memory and written to a WAV file when the
// capture finishes.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cosap/voicechat"
	"github.com/cosap/voicechat/wav"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"
)

const (
	defaultSampleRate      = 16000
	defaultChannels        = 1
	defaultFramesPerBuffer = 1024
)

// Interface compliance checks.
var (
	_ voicechat.Microphone = (*Microphone)(nil)
	_ voicechat.Capture    = (*capture)(nil)
)

// Microphone records from a PortAudio input device into WAV files under a
// directory.
type Microphone struct {
	dir             string
	device          string
	sampleRate      int
	channels        int
	framesPerBuffer int
	logger          *slog.Logger

	mu          sync.Mutex
	initialized bool
}

// Option configures a [Microphone].
type Option func(*Microphone)

// WithDevice selects an input device by case-insensitive name substring.
// The default input device is used otherwise.
func WithDevice(name string) Option {
	return func(m *Microphone) { m.device = name }
}

// WithSampleRate sets the capture sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(m *Microphone) {
		if rate > 0 {
			m.sampleRate = rate
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Microphone) { m.logger = l }
}

// New returns a Microphone writing recordings into dir.
func New(dir string, opts ...Option) *Microphone {
	m := &Microphone{
		dir:             dir,
		sampleRate:      defaultSampleRate,
		channels:        defaultChannels,
		framesPerBuffer: defaultFramesPerBuffer,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// RequestPermission initializes PortAudio and checks that an input device is
// available. Terminals have no permission prompt, so a missing input device
// is reported as a refusal.
func (m *Microphone) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.init(); err != nil {
		return fmt.Errorf("portaudio: %w: %w", voicechat.ErrDevice, err)
	}
	if _, err := m.inputDevice(); err != nil {
		return fmt.Errorf("portaudio: %w: %w", voicechat.ErrPermissionDenied, err)
	}
	return nil
}

// Open starts a capture stream on the selected device.
func (m *Microphone) Open(ctx context.Context) (voicechat.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("portaudio: %w: %w", voicechat.ErrDevice, err)
	}
	dev, err := m.inputDevice()
	if err != nil {
		return nil, fmt.Errorf("portaudio: %w: %w", voicechat.ErrDevice, err)
	}

	c := &capture{mic: m}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: m.channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(m.sampleRate),
		FramesPerBuffer: m.framesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, c.process)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open stream: %w: %w", voicechat.ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("portaudio: start stream: %w: %w", voicechat.ErrDevice, err)
	}
	c.stream = stream
	m.logger.Info("capture started", "device", dev.Name, "sample_rate", m.sampleRate)
	return c, nil
}

// Close releases PortAudio.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil
	}
	m.initialized = false
	return portaudio.Terminate()
}

func (m *Microphone) init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	m.initialized = true
	return nil
}

var errNoInputDevice = errors.New("no input device")

func (m *Microphone) inputDevice() (*portaudio.DeviceInfo, error) {
	if m.device == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errNoInputDevice, err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && matchesDevice(d.Name, m.device) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w matching %q", errNoInputDevice, m.device)
}

func matchesDevice(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// capture buffers samples delivered by the PortAudio callback.
type capture struct {
	mic    *Microphone
	stream *portaudio.Stream

	mu      sync.Mutex
	samples []int16
}

func (c *capture) process(in []int16) {
	c.mu.Lock()
	c.samples = append(c.samples, in...)
	c.mu.Unlock()
}

func (c *capture) stop() error {
	stopErr := c.stream.Stop()
	closeErr := c.stream.Close()
	return errors.Join(stopErr, closeErr)
}

// Finish stops the stream and writes the buffered samples to a new WAV file.
func (c *capture) Finish(ctx context.Context) (voicechat.AudioHandle, error) {
	if err := c.stop(); err != nil {
		return voicechat.AudioHandle{}, fmt.Errorf("portaudio: stop stream: %w: %w", voicechat.ErrDevice, err)
	}
	if err := ctx.Err(); err != nil {
		return voicechat.AudioHandle{}, err
	}

	c.mu.Lock()
	samples := c.samples
	c.samples = nil
	c.mu.Unlock()

	m := c.mic
	name := RecordingName()
	path := filepath.Join(m.dir, name)
	size, err := wav.Write(path, samples, m.sampleRate, m.channels)
	if err != nil {
		return voicechat.AudioHandle{}, fmt.Errorf("portaudio: %w", err)
	}
	h := voicechat.AudioHandle{
		Path:     path,
		MimeType: wav.MimeType,
		FileName: name,
		Size:     size,
		Duration: wav.Duration(len(samples), m.sampleRate, m.channels),
	}
	m.logger.Info("capture finished", "path", path, "duration", h.Duration)
	return h, nil
}

// Discard stops the stream and drops the buffered samples.
func (c *capture) Discard() error {
	err := c.stop()
	c.mu.Lock()
	c.samples = nil
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	return nil
}

// RecordingName returns a fresh recording file name.
func RecordingName() string {
	return "recording-" + uuid.NewString() + ".wav"
}
