// Package portaudio captures microphone audio through the PortAudio C
// library.
package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/whisperclip/whisperclip/internal/recording"
)

// Pa_Initialize and Pa_Terminate are reference counted by PortAudio but not
// safe to call concurrently.
var initMu sync.Mutex

type Source struct {
	config recording.Config
}

func New(config recording.Config) *Source {
	return &Source{config: config}
}

func (s *Source) Name() string { return "portaudio" }

func (s *Source) Run(ctx context.Context, emit recording.ChunkFunc) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	initMu.Lock()
	err := portaudio.Initialize()
	initMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: initialize PortAudio: %v", recording.ErrDevice, err)
	}
	defer func() {
		initMu.Lock()
		portaudio.Terminate()
		initMu.Unlock()
	}()

	buffer := make([]float32, s.config.FramesPerBuffer*s.config.Channels)
	stream, err := s.open(buffer)
	if err != nil {
		return fmt.Errorf("%w: open stream: %v", recording.ErrDevice, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("%w: start stream: %v", recording.ErrDevice, err)
	}
	defer stream.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := stream.Read(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if err == portaudio.InputOverflowed {
				// samples were dropped by the host; keep going
				continue
			}
			return fmt.Errorf("%w: read: %v", recording.ErrDevice, err)
		}

		samples := make([]float32, len(buffer))
		copy(samples, buffer)
		emit(samples)
	}
}

func (s *Source) open(buffer []float32) (*portaudio.Stream, error) {
	if s.config.Device == "" || s.config.Device == "default" {
		return portaudio.OpenDefaultStream(s.config.Channels, 0, float64(s.config.SampleRate), s.config.FramesPerBuffer, buffer)
	}

	device, err := findInputDevice(s.config.Device)
	if err != nil {
		return nil, err
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: s.config.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(s.config.SampleRate),
		FramesPerBuffer: s.config.FramesPerBuffer,
	}
	return portaudio.OpenStream(params, buffer)
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device not found: %s", name)
}

// Device describes an input device for listing.
type Device struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// ListInputDevices returns every device that can record.
func ListInputDevices() ([]Device, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var out []Device
	for _, dev := range devices {
		if dev.MaxInputChannels <= 0 {
			continue
		}
		hostAPI := ""
		if dev.HostApi != nil {
			hostAPI = dev.HostApi.Name
		}
		out = append(out, Device{
			Name:              dev.Name,
			HostAPI:           hostAPI,
			MaxInputChannels:  dev.MaxInputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			Default:           dev.Name == defaultName,
		})
	}
	return out, nil
}
