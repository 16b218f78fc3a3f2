package device

import (
	"math"
	"sync/atomic"

	"github.com/outboard/go-fconv/fconv/timing"
)

// Simulated drives input/output callbacks on a Limiter instead of real
// hardware, so end-to-end scenarios (independently-clocked producer and
// consumer, silence in/out, stall detection) can run without audio devices.
// It satisfies Backend, so Session runs against it in tests exactly as it
// would against a real Host.
type Simulated struct {
	cfg           StreamConfig
	framesPerTick int
	inputLimiter  timing.Limiter
	outputLimiter timing.Limiter
	stop          atomic.Bool

	gen      func(buf []float32)
	inputCB  InputCallback
	outputCB OutputCallback
}

var _ Backend = (*Simulated)(nil)

// NewSimulated builds a Simulated device that delivers framesPerTick frames
// per callback, using inputLimiter/outputLimiter to pace each side
// independently — two devices never share a clock, and tests model that
// drift by handing each side its own limiter. Input defaults to
// SilenceGenerator; call SetInputGenerator before Start to change it.
func NewSimulated(cfg StreamConfig, framesPerTick int, inputLimiter, outputLimiter timing.Limiter) *Simulated {
	return &Simulated{
		cfg:           cfg,
		framesPerTick: framesPerTick,
		inputLimiter:  inputLimiter,
		outputLimiter: outputLimiter,
		gen:           SilenceGenerator(),
	}
}

// SetInputGenerator replaces the buffer-filling function RunInput/Start use
// to synthesize captured audio.
func (s *Simulated) SetInputGenerator(gen func(buf []float32)) {
	s.gen = gen
}

// OpenInput records cb as the callback Start will drive; name and cfg are
// ignored since a Simulated has no real devices to enumerate.
func (s *Simulated) OpenInput(_ string, _ StreamConfig, cb InputCallback) error {
	s.inputCB = cb
	return nil
}

// OpenOutput records cb as the callback Start will drive; name and cfg are
// ignored since a Simulated has no real devices to enumerate.
func (s *Simulated) OpenOutput(_ string, _ StreamConfig, cb OutputCallback) error {
	s.outputCB = cb
	return nil
}

// Start launches the input and output loops in their own goroutines. It
// returns immediately; the loops run until Stop.
func (s *Simulated) Start() error {
	go s.RunInput(s.inputCB, s.gen)
	go s.RunOutput(s.outputCB)
	return nil
}

// Close is a no-op; Simulated owns no OS resources.
func (s *Simulated) Close() error {
	return nil
}

// RunInput calls cb once per tick, forever, with a freshly generated
// interleaved input buffer from gen (see SineGenerator/SilenceGenerator),
// until Stop is called.
func (s *Simulated) RunInput(cb InputCallback, gen func(buf []float32)) {
	buf := make([]float32, s.framesPerTick*s.cfg.InputChannels)
	for !s.stop.Load() {
		s.inputLimiter.WaitForNextCallback()
		gen(buf)
		cb(buf)
	}
}

// RunOutput calls cb once per tick, forever, with a freshly zeroed
// interleaved output buffer for the callback to fill, until Stop is called.
func (s *Simulated) RunOutput(cb OutputCallback) {
	buf := make([]float32, s.framesPerTick*s.cfg.OutputChannels)
	for !s.stop.Load() {
		s.outputLimiter.WaitForNextCallback()
		for i := range buf {
			buf[i] = 0
		}
		cb(buf)
	}
}

// Stop ends both RunInput and RunOutput loops after their current tick.
func (s *Simulated) Stop() error {
	s.stop.Store(true)
	return nil
}

// SineGenerator returns a buffer-filling function that writes a sine wave of
// the given frequency and amplitude to every channel of an interleaved buffer
// with inputChannels channels (each frame carries the same value on all
// channels), sampled at sampleRate, advancing its phase across successive
// calls.
func SineGenerator(sampleRate, inputChannels int, freqHz, amplitude float64) func(buf []float32) {
	phase := 0.0
	step := 2 * math.Pi * freqHz / float64(sampleRate)
	return func(buf []float32) {
		frames := len(buf) / inputChannels
		for f := 0; f < frames; f++ {
			v := float32(amplitude * math.Sin(phase))
			for c := 0; c < inputChannels; c++ {
				buf[f*inputChannels+c] = v
			}
			phase += step
		}
	}
}

// SilenceGenerator returns a buffer-filling function that always writes
// zero.
func SilenceGenerator() func(buf []float32) {
	return func(buf []float32) {
		for i := range buf {
			buf[i] = 0
		}
	}
}
