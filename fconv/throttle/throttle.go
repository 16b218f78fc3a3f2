// Package throttle implements the rate-matching controller between the DSP
// worker and the output queue: a synchronous PID controller that decides, per
// sample, whether to forward it to a downstream conveyor or drop it, driving
// the downstream queue depth toward a target occupancy.
package throttle

import "log/slog"

// PID gains, hand-tuned for 48kHz. Stability is not guaranteed at other
// sample rates, so they are deliberately not runtime configuration.
const (
	KP = 1e-3
	KI = 1e-4
	KD = 1e-4

	oneMillion = 1_000_000
)

// Sender is the subset of conveyor.Sender[T] the throttle forwards into: the
// ability to send an item and observe the receiver's depth. A
// conveyor.Sender[T] satisfies this directly, with no adapter required.
type Sender[T any] interface {
	Send(item T) error
	Count() int64
}

// Throttle holds the PID controller's running state for one sample stream.
// The zero value is not usable; construct with New.
type Throttle[T any] struct {
	downstream Sender[T]
	target     int64
	td         float64
	iterCount  uint64
	pidI       float64
	prevError  float64
}

// New constructs a Throttle that forwards into downstream, targeting target
// frames of downstream queue depth, with the controller's integral term
// scaled by the sample period 1/sampleRate.
func New[T any](downstream Sender[T], target int64, sampleRate int) *Throttle[T] {
	return &Throttle[T]{
		downstream: downstream,
		target:     target,
		td:         1.0 / float64(sampleRate),
	}
}

// Send runs one controller iteration and either forwards item downstream or
// silently drops it. It never splits, buffers, or reorders items, and the
// decision never depends on item's content — only on internal controller
// state and the observed downstream depth. A positive controller output means
// the queue is above target; the modulus on iterCount turns that output into
// a drop period that shortens as the output grows.
func (th *Throttle[T]) Send(item T) error {
	outputLen := th.downstream.Count()
	errVal := float64(outputLen) - float64(th.target)

	th.pidI += errVal * th.td
	d := errVal - th.prevError
	th.prevError = errVal

	u := KP*errVal + KI*th.pidI + KD*d

	drop := false
	if u > 0 {
		period := oneMillion / (uint64(u*50) + 1)
		if period == 0 {
			period = 1
		}
		drop = th.iterCount%period == 0
	}

	if th.iterCount%10000 == 0 {
		slog.Debug("throttle state", "iter", th.iterCount, "output_len", outputLen,
			"error", errVal, "u", u, "drop", drop)
	}
	th.iterCount++

	if drop {
		return nil
	}

	return th.downstream.Send(item)
}
