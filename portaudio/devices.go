package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio input device.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// ListInputDevices returns the devices that can record.
func ListInputDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: list devices: %w", err)
	}
	var defaultName string
	if d, err := portaudio.DefaultInputDevice(); err == nil {
		defaultName = d.Name
	}
	return inputDevices(devices, defaultName), nil
}

func inputDevices(devices []*portaudio.DeviceInfo, defaultName string) []Device {
	var out []Device
	for i, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		out = append(out, Device{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           d.Name == defaultName,
		})
	}
	return out
}
