// Package fir implements per-channel streaming FIR convolution: a shared
// delay line of the last L input frames, one independent impulse response per
// channel, one sample in for (eventually) one sample out.
package fir

import "fmt"

// NumChannels is the compile-time channel count for a Sample: the number of
// logical FIR lanes each input frame is expanded into.
const NumChannels = 8

// Sample is one frame: one float32 per FIR channel, with the timestamp (in
// whatever monotonic unit the caller uses) of its capture instant.
type Sample struct {
	Data      [NumChannels]float32
	Timestamp int64
}

// Filter is a streaming multi-channel FIR convolver. The zero value is not
// usable; construct with New.
type Filter struct {
	// impulse[t][c] is the coefficient for channel c at tap t. impulse[0] is
	// the oldest retained sample's tap, impulse[len-1] the newest.
	impulse [][NumChannels]float32

	// Delay line, oldest frame at buf[head]. Kept contiguous so the
	// convolution walks a single slice; consumed head space is copied out
	// once it outgrows the live window, so the hot path never allocates in
	// steady state.
	buf  []Sample
	head int

	// zeroRun counts the consecutive all-zero frames ending at the newest
	// push. When it covers the whole delay line the convolution output is
	// zero with no multiply-accumulate needed.
	zeroRun int
}

// New builds a Filter from a length-NumChannels list of impulses. Each
// impulse is either empty (that channel emits zero) or exactly L samples
// long, for a single shared L across all non-empty impulses. Two non-empty
// impulses disagreeing on length is a fatal configuration error, reported
// before any audio flows.
func New(impulses [NumChannels][]float32) (*Filter, error) {
	length := 0
	for c, imp := range impulses {
		if len(imp) == 0 {
			continue
		}
		if length == 0 {
			length = len(imp)
		} else if len(imp) != length {
			return nil, fmt.Errorf("fir: impulse length mismatch on channel %d: got %d, want %d", c, len(imp), length)
		}
	}

	f := &Filter{}

	if length == 0 {
		// No non-empty impulse at all: every channel is permanently zero and
		// the filter is primed immediately (the depth requirement is 0).
		return f, nil
	}

	f.impulse = make([][NumChannels]float32, length)
	for c, imp := range impulses {
		if len(imp) == 0 {
			continue
		}
		for t := 0; t < length; t++ {
			f.impulse[t][c] = imp[t]
		}
	}
	f.buf = make([]Sample, 0, 2*length)

	return f, nil
}

// PushSample appends an input frame to the tail of the delay line.
func (f *Filter) PushSample(s Sample) {
	if f.head > 0 && f.head >= len(f.buf)-f.head {
		n := copy(f.buf, f.buf[f.head:])
		f.buf = f.buf[:n]
		f.head = 0
	}
	f.buf = append(f.buf, s)

	if s.Data == ([NumChannels]float32{}) {
		f.zeroRun++
	} else {
		f.zeroRun = 0
	}
}

// PopSample returns the next output frame once the delay line is primed
// (depth == L impulse taps), or (Sample{}, false) before that. L is the
// shared impulse length; a filter with no non-empty impulse at all is primed
// immediately and always returns the zero frame.
func (f *Filter) PopSample() (Sample, bool) {
	L := len(f.impulse)
	depth := f.Depth()
	if depth < L {
		return Sample{}, false
	}

	var out Sample

	if L == 0 {
		if depth > 0 {
			out.Timestamp = f.buf[f.head].Timestamp
			f.drop()
		}
		return out, true
	}

	out.Timestamp = f.buf[f.head].Timestamp

	if f.zeroRun < depth {
		win := f.buf[f.head : f.head+L]
		for t := range f.impulse {
			taps := &f.impulse[t]
			x := &win[t].Data
			for c := 0; c < NumChannels; c++ {
				out.Data[c] += taps[c] * x[c]
			}
		}
	}

	f.drop()

	return out, true
}

// drop discards the oldest retained frame.
func (f *Filter) drop() {
	f.buf[f.head] = Sample{}
	f.head++
	if d := f.Depth(); f.zeroRun > d {
		f.zeroRun = d
	}
}

// Depth returns the current number of frames retained in the delay line.
func (f *Filter) Depth() int {
	return len(f.buf) - f.head
}

// ImpulseLen returns the shared tap count L, or 0 if every channel is empty.
func (f *Filter) ImpulseLen() int {
	return len(f.impulse)
}
