// Package fconv is the realtime multi-channel audio convolution engine:
// Session wires an input-callback producer, a high-priority DSP worker, and
// an output-callback consumer together, owns the shared telemetry, and
// implements the initialize/run/stop/reload lifecycle.
package fconv

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sourcegraph/conc/panics"

	"github.com/outboard/go-fconv/fconv/backend"
	"github.com/outboard/go-fconv/fconv/config"
	"github.com/outboard/go-fconv/fconv/conveyor"
	"github.com/outboard/go-fconv/fconv/device"
	"github.com/outboard/go-fconv/fconv/fir"
	"github.com/outboard/go-fconv/fconv/impulse"
	"github.com/outboard/go-fconv/fconv/telemetry"
	"github.com/outboard/go-fconv/fconv/throttle"
)

// NumInputChannels and NumOutputChannels are the device-side channel counts
// of the reference stream configuration. fir.NumChannels (8) is the FIR lane
// count; only the first NumOutputChannels of a popped fir.Sample ever reach
// the output device.
const (
	NumInputChannels  = 2
	NumOutputChannels = 6
	VolumeScalar      = 0.5

	stallTimeout       = time.Second
	supervisorInterval = 500 * time.Millisecond
)

// RunResult is the outcome of one Session.Run call: the supervisor is the
// single point that classifies how a session ended.
type RunResult int

const (
	// Quit means the operator asked to exit; the process should stop.
	Quit RunResult = iota
	// Reload means the operator asked for a fresh session with the same
	// device handles and reset telemetry.
	Reload
	// StreamsStopped means the supervisor detected a stall (either
	// callback has not fired within stallTimeout) or found the DSP worker
	// gone, and a restart should be attempted.
	StreamsStopped
)

func (r RunResult) String() string {
	switch r {
	case Quit:
		return "quit"
	case Reload:
		return "reload"
	case StreamsStopped:
		return "streams-stopped"
	default:
		return "unknown"
	}
}

// Session owns one run of the pipeline: the FIR state, the throttle state,
// both counting channels, shared telemetry, the device handles, and the
// dashboard. The DSP worker exclusively owns the FIR and throttle once
// spawned; Session itself only wires construction and teardown.
type Session struct {
	id     string
	cfg    *config.Config
	log    *slog.Logger
	shared *telemetry.Shared
	dash   backend.Dashboard

	backend device.Backend

	chanASend conveyor.Sender[fir.Sample]
	chanARecv conveyor.Receiver[fir.Sample]
	chanBSend conveyor.Sender[fir.Sample]
	chanBRecv conveyor.Receiver[fir.Sample]

	// dspDone is closed exactly once when the DSP worker returns; dspErr
	// holds its outcome. Using close rather than a value send lets both
	// Run's non-blocking poll and Stop's blocking wait observe it safely,
	// however many times each reads it.
	dspDone chan struct{}
	dspErr  error
}

// New constructs a Session that opens real hardware via device.NewHost on
// Init. Init must be called before Run.
func New(cfg *config.Config, dash backend.Dashboard) *Session {
	return newSession(cfg, dash, nil)
}

// NewWithBackend constructs a Session against a pre-built device.Backend,
// bypassing real device discovery entirely — this is how tests drive the
// full orchestration logic against a device.Simulated.
func NewWithBackend(cfg *config.Config, dash backend.Dashboard, be device.Backend) *Session {
	return newSession(cfg, dash, be)
}

func newSession(cfg *config.Config, dash backend.Dashboard, be device.Backend) *Session {
	id := uuid.Must(uuid.NewV4()).String()
	return &Session{
		id:      id,
		cfg:     cfg,
		log:     slog.Default().With("session", id),
		shared:  telemetry.New(),
		dash:    dash,
		backend: be,
	}
}

// Init loads the impulse bank, builds the FIR filter, creates both counting
// channels and the throttle, opens and starts the device streams, and spawns
// the DSP worker. Any failure here is a fatal configuration error: Init
// returns it rather than panicking, and the caller decides whether to exit.
func (s *Session) Init() error {
	if err := s.dash.Init(backend.Config{Title: "go-fconv"}); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	impulses, err := s.loadImpulseBank()
	if err != nil {
		return err
	}

	filter, err := fir.New(impulses)
	if err != nil {
		return fmt.Errorf("session: build fir filter: %w", err)
	}

	s.chanASend, s.chanARecv = conveyor.New[fir.Sample]()
	s.chanBSend, s.chanBRecv = conveyor.New[fir.Sample]()

	th := throttle.New[fir.Sample](s.chanBSend, s.cfg.ThrottleTarget, s.cfg.SampleRate)

	if s.backend == nil {
		host, err := device.NewHost()
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}
		s.backend = host
	}

	streamCfg := device.StreamConfig{
		SampleRate:     s.cfg.SampleRate,
		InputChannels:  NumInputChannels,
		OutputChannels: NumOutputChannels,
	}

	if err := s.backend.OpenInput(s.cfg.InputDeviceName, streamCfg, s.inputCallback()); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := s.backend.OpenOutput(s.cfg.OutputDeviceName, streamCfg, s.outputCallback()); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.dspDone = make(chan struct{})
	go s.runDSPWorker(filter, th)

	if err := s.backend.Start(); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.log.Info("session initialized",
		"input_device", s.cfg.InputDeviceName,
		"output_device", s.cfg.OutputDeviceName,
		"sample_rate", s.cfg.SampleRate,
		"throttle_target", s.cfg.ThrottleTarget)

	return nil
}

// loadImpulseBank loads one impulse per FIR channel, per cfg.ImpulseFiles
// (an empty path means that channel stays silent).
func (s *Session) loadImpulseBank() ([fir.NumChannels][]float32, error) {
	var impulses [fir.NumChannels][]float32
	for c, path := range s.cfg.ImpulseFiles {
		if c >= fir.NumChannels {
			break
		}
		if path == "" {
			continue
		}
		coeffs, err := impulse.Load(path, impulse.Length)
		if err != nil {
			return impulses, fmt.Errorf("session: load impulse bank: %w", err)
		}
		impulses[c] = coeffs
	}
	return impulses, nil
}

// Telemetry returns a point-in-time snapshot of this session's shared
// telemetry record, for callers (tests, an alternate dashboard) that want to
// inspect it without going through backend.Dashboard.
func (s *Session) Telemetry() telemetry.Snapshot {
	return s.shared.Snapshot()
}

// Run drives the supervisor loop: every supervisorInterval it checks both
// callback timestamps for a stall, renders the dashboard, and applies any
// operator command it reports.
func (s *Session) Run() RunResult {
	for {
		time.Sleep(supervisorInterval)

		snap := s.shared.Snapshot()
		now := time.Now()
		if now.Sub(snap.InputBufferTimestamp) > stallTimeout || now.Sub(snap.OutputBufferTimestamp) > stallTimeout {
			s.log.Warn("stream stall detected", "input_delta", now.Sub(snap.InputBufferTimestamp),
				"output_delta", now.Sub(snap.OutputBufferTimestamp))
			return StreamsStopped
		}

		select {
		case <-s.dspDone:
			if s.dspErr != nil {
				s.log.Error("dsp worker exited with error", "error", s.dspErr)
			}
			return StreamsStopped
		default:
		}

		cmd, err := s.dash.Update(snap, s.chanBRecv.Count(), s.shared.DSPLoadPercent())
		if err != nil {
			s.log.Error("dashboard update failed", "error", err)
			continue
		}

		switch cmd {
		case backend.CommandQuit:
			return Quit
		case backend.CommandReload:
			return Reload
		case backend.CommandUnrecognized:
			s.log.Warn("unrecognized operator command")
		}
	}
}

// Stop closes Channel A and tears down the device streams, which causes the
// DSP worker to exit on its next blocked Recv. Teardown is done by dropping
// the handle graph, never by mutating a live session.
func (s *Session) Stop() error {
	s.chanASend.Close()
	if err := s.backend.Stop(); err != nil {
		s.log.Warn("error stopping streams", "error", err)
	}
	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := s.dash.Cleanup(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	<-s.dspDone
	return nil
}

// runDSPWorker is the body spawned by Init. It requests maximum scheduling
// priority (best-effort; see SetMaxPriority), then loops: recv from Channel
// A, push into the FIR, pop, and forward through the throttle into Channel
// B, until Channel A disconnects. A panic anywhere in this loop — most
// plausibly a slipped-through malformed impulse bank — is caught and
// reported on dspDone instead of taking the whole process down.
func (s *Session) runDSPWorker(filter *fir.Filter, th *throttle.Throttle[fir.Sample]) {
	var catcher panics.Catcher
	catcher.Try(func() {
		SetMaxPriority(s.log)

		var onDuration time.Duration
		var iterSinceMeasure int
		lastMeasure := time.Now()

		for {
			sample, err := s.chanARecv.Recv()
			if err != nil {
				return
			}

			start := time.Now()
			filter.PushSample(sample)
			if out, ok := filter.PopSample(); ok {
				if err := th.Send(out); err != nil {
					return
				}
			}
			onDuration += time.Since(start)

			iterSinceMeasure++
			if iterSinceMeasure >= s.cfg.SampleRate {
				elapsed := time.Since(lastMeasure)
				loadPPM := int64(0)
				if elapsed > 0 {
					loadPPM = int64(onDuration) * 1_000_000 / int64(elapsed)
				}
				s.shared.SetDSPLoadPercent(loadPPM / 1000)
				onDuration = 0
				iterSinceMeasure = 0
				lastMeasure = time.Now()
			}
		}
	})

	if recovered := catcher.Recovered(); recovered != nil {
		s.dspErr = fmt.Errorf("session: dsp worker panicked: %w", recovered.AsError())
	}
	// Dropping Channel B's sender is what lets the output callback observe
	// the disconnect once the queue drains.
	s.chanBSend.Close()
	close(s.dspDone)
}

// inputCallback returns the handler the input stream invokes with each
// captured interleaved buffer: expand each frame to a fir.Sample via the
// channel mapping, stamp it, and send it into Channel A.
func (s *Session) inputCallback() device.InputCallback {
	return func(data []float32) {
		now := time.Now()
		s.shared.MarkInput(now)

		numFrames := len(data) / NumInputChannels
		frameDuration := time.Second / time.Duration(s.cfg.SampleRate)

		for f := 0; f < numFrames; f++ {
			var out fir.Sample
			for c := 0; c < fir.NumChannels; c++ {
				in := s.cfg.ChannelMapping[c]
				out.Data[c] = data[f*NumInputChannels+in]
			}
			out.Timestamp = now.Add(time.Duration(f) * frameDuration).UnixNano()

			if err := s.chanASend.Send(out); err != nil {
				var sendErr *conveyor.SendError[fir.Sample]
				if !errors.As(err, &sendErr) {
					s.log.Error("unexpected input send error", "error", err)
				}
				return
			}
		}
	}
}

// outputCallback returns the handler the output stream invokes with each
// buffer to fill: for each frame, try a non-blocking receive from Channel B
// (substituting silence and counting a miss on empty), track last-frame
// latency, scale by VolumeScalar, and after filling the buffer publish
// per-channel RMS. Telemetry is published once per buffer, not per frame, so
// the callback holds the shared mutex only briefly.
func (s *Session) outputCallback() device.OutputCallback {
	return func(data []float32) {
		now := time.Now()

		numFrames := len(data) / NumOutputChannels
		frameDuration := time.Second / time.Duration(s.cfg.SampleRate)

		var channelSums [NumOutputChannels]float64
		var missed uint64
		var latency time.Duration
		haveLatency := false
		disconnected := false

		for f := 0; f < numFrames; f++ {
			var sample fir.Sample
			if !disconnected {
				var err error
				sample, err = s.chanBRecv.TryRecv()
				switch {
				case errors.Is(err, conveyor.ErrDisconnected):
					// Silence from here on; the supervisor notices the DSP
					// worker is gone and restarts the session.
					s.log.Error("output channel unexpectedly disconnected")
					disconnected = true
					sample = fir.Sample{}
				case errors.Is(err, conveyor.ErrEmpty):
					missed++
					sample = fir.Sample{}
				default:
					frameTime := now.Add(time.Duration(f) * frameDuration)
					latency = time.Duration(frameTime.UnixNano() - sample.Timestamp)
					haveLatency = true
				}
			}

			for c := 0; c < NumOutputChannels; c++ {
				v := sample.Data[c] * VolumeScalar
				data[f*NumOutputChannels+c] = v
				channelSums[c] += float64(v) * float64(v)
			}
		}

		var volumes [telemetry.NumChannels]float32
		for c := range volumes {
			if numFrames > 0 {
				volumes[c] = float32(math.Sqrt(channelSums[c] / float64(numFrames)))
			}
		}
		s.shared.MarkOutput(now, volumes)
		s.shared.AddMissed(missed)
		if haveLatency {
			s.shared.SetLatency(latency)
		}
	}
}
