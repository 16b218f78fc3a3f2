// Package telemetry holds the shared state mutated by the input callback,
// the output callback, and the supervisor loop.
package telemetry

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// NumChannels is the telemetry record's per-channel RMS width: the number of
// physical device output channels actually written, distinct from
// fir.NumChannels (8), the number of FIR lanes computed. Only the first
// NumChannels of a popped fir.Sample are ever written to the device or
// measured for RMS.
const NumChannels = 6

// Shared is the mutex-guarded record jointly held by the audio callbacks and
// the supervisor: timestamps from the two callbacks, last-output-buffer RMS
// per channel, the missed-sample counter, and last-frame latency. The DSP
// load lives in a separate atomic, written by the DSP worker and read by the
// supervisor without contending on the callback mutex.
type Shared struct {
	mu sync.Mutex

	inputBufferTimestamp  time.Time
	outputBufferTimestamp time.Time
	outputBufferVolumes   [NumChannels]float32
	missedSampleCount     uint64
	totalLatency          time.Duration

	dspLoadPercent atomic.Int64 // stored as percent * 10 for one decimal place
}

// New returns a Shared record with both timestamps set to now and every
// counter at zero.
func New() *Shared {
	now := time.Now()
	return &Shared{
		inputBufferTimestamp:  now,
		outputBufferTimestamp: now,
	}
}

// Reset zeroes every field except the DSP-load atomic, and restamps both
// timestamps to now. A reloaded session starts from a fresh record.
func (s *Shared) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.inputBufferTimestamp = now
	s.outputBufferTimestamp = now
	s.outputBufferVolumes = [NumChannels]float32{}
	s.missedSampleCount = 0
	s.totalLatency = 0
}

// MarkInput records that the input callback just ran.
func (s *Shared) MarkInput(now time.Time) {
	s.mu.Lock()
	s.inputBufferTimestamp = now
	s.mu.Unlock()
}

// MarkOutput records that the output callback just ran and updates the
// per-channel RMS volumes for the buffer it just produced.
func (s *Shared) MarkOutput(now time.Time, volumes [NumChannels]float32) {
	s.mu.Lock()
	s.outputBufferTimestamp = now
	s.outputBufferVolumes = volumes
	s.mu.Unlock()
}

// AddMissed adds n to the missed-sample counter. The output callback batches
// one call per buffer rather than taking the mutex per underrun.
func (s *Shared) AddMissed(n uint64) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.missedSampleCount += n
	s.mu.Unlock()
}

// SetLatency overwrites total latency with the given value. This is
// last-frame latency, not a mean.
func (s *Shared) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.totalLatency = d
	s.mu.Unlock()
}

// Snapshot is a point-in-time, lock-free-to-read copy of Shared's guarded
// fields, for the supervisor loop to render without holding the mutex longer
// than the copy itself.
type Snapshot struct {
	InputBufferTimestamp  time.Time
	OutputBufferTimestamp time.Time
	OutputBufferVolumes   [NumChannels]float32
	MissedSampleCount     uint64
	TotalLatency          time.Duration
}

// Snapshot copies out the current guarded state.
func (s *Shared) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		InputBufferTimestamp:  s.inputBufferTimestamp,
		OutputBufferTimestamp: s.outputBufferTimestamp,
		OutputBufferVolumes:   s.outputBufferVolumes,
		MissedSampleCount:     s.missedSampleCount,
		TotalLatency:          s.totalLatency,
	}
}

// SetDSPLoadPercent publishes the DSP worker's duty cycle, in tenths of a
// percent, so the supervisor can render one decimal place without
// floating-point atomics.
func (s *Shared) SetDSPLoadPercent(tenths int64) {
	s.dspLoadPercent.Store(tenths)
}

// DSPLoadPercent returns the last published DSP duty cycle as a float
// percentage.
func (s *Shared) DSPLoadPercent() float64 {
	return float64(s.dspLoadPercent.Load()) / 10
}

// RMS computes the root-mean-square of buf, the per-channel volume measure
// the output callback reports for each produced buffer.
func RMS(buf []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	mean := sum / float64(len(buf))
	return float32(math.Sqrt(mean))
}
