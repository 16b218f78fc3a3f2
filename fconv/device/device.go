// Package device adapts the host audio hardware (and, for tests, a
// simulated clock) to the callback shape the pipeline consumes: an input
// callback invoked with an interleaved buffer of captured samples and an
// output callback invoked with a buffer to fill.
package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// InputCallback receives one interleaved buffer of frames*inputChannels
// captured samples.
type InputCallback func(data []float32)

// OutputCallback fills one interleaved buffer of frames*outputChannels
// samples to be played.
type OutputCallback func(data []float32)

// StreamConfig describes a stream to open: a fixed sample rate and channel
// counts, with the host-default buffer size.
type StreamConfig struct {
	SampleRate     int
	InputChannels  int
	OutputChannels int
}

// Backend is the construction/lifecycle surface Session depends on: open
// named input/output streams against callbacks, then start/stop/close them.
// Host implements it against real hardware; Simulated implements it against
// a Limiter-paced synthetic producer/consumer, letting Session's tests run
// the real orchestration logic without any audio hardware.
type Backend interface {
	OpenInput(name string, cfg StreamConfig, cb InputCallback) error
	OpenOutput(name string, cfg StreamConfig, cb OutputCallback) error
	Start() error
	Stop() error
	Close() error
}

// Host wraps portaudio for device enumeration-by-name and stream
// construction.
type Host struct {
	inputStream  *portaudio.Stream
	outputStream *portaudio.Stream
}

var _ Backend = (*Host)(nil)

// NewHost initializes the portaudio library. Callers must call Close when
// done, even on a later error, to release portaudio's global state.
func NewHost() (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("device: initialize portaudio: %w", err)
	}
	return &Host{}, nil
}

// findDevice returns the device from devices whose Name matches name
// exactly. Device names come straight from operator configuration; a miss is
// a fatal setup error, not something to fuzzy-match around.
func findDevice(devices []*portaudio.DeviceInfo, name string) (*portaudio.DeviceInfo, error) {
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device: %q not found", name)
}

// OpenInput opens the named input device with cfg's sample rate and input
// channel count, host-default buffer size, and registers cb as its
// callback.
func (h *Host) OpenInput(name string, cfg StreamConfig, cb InputCallback) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("device: enumerate devices: %w", err)
	}
	dev, err := findDevice(devices, name)
	if err != nil {
		return err
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = cfg.InputChannels
	params.SampleRate = float64(cfg.SampleRate)

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		cb(in)
	})
	if err != nil {
		return fmt.Errorf("device: open input stream on %q: %w", name, err)
	}
	h.inputStream = stream
	return nil
}

// OpenOutput opens the named output device with cfg's sample rate and output
// channel count, host-default buffer size, and registers cb as its
// callback.
func (h *Host) OpenOutput(name string, cfg StreamConfig, cb OutputCallback) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("device: enumerate devices: %w", err)
	}
	dev, err := findDevice(devices, name)
	if err != nil {
		return err
	}

	params := portaudio.LowLatencyParameters(nil, dev)
	params.Output.Channels = cfg.OutputChannels
	params.SampleRate = float64(cfg.SampleRate)

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		cb(out)
	})
	if err != nil {
		return fmt.Errorf("device: open output stream on %q: %w", name, err)
	}
	h.outputStream = stream
	return nil
}

// Start starts both opened streams.
func (h *Host) Start() error {
	if h.inputStream != nil {
		if err := h.inputStream.Start(); err != nil {
			return fmt.Errorf("device: start input stream: %w", err)
		}
	}
	if h.outputStream != nil {
		if err := h.outputStream.Start(); err != nil {
			return fmt.Errorf("device: start output stream: %w", err)
		}
	}
	return nil
}

// Stop stops both streams without closing them.
func (h *Host) Stop() error {
	if h.inputStream != nil {
		if err := h.inputStream.Stop(); err != nil {
			return err
		}
	}
	if h.outputStream != nil {
		if err := h.outputStream.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes both streams and terminates portaudio.
func (h *Host) Close() error {
	if h.inputStream != nil {
		h.inputStream.Close()
	}
	if h.outputStream != nil {
		h.outputStream.Close()
	}
	return portaudio.Terminate()
}
