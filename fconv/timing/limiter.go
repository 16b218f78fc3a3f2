// Package timing paces a simulated audio device's callback cadence at a
// target frames-per-callback rate.
package timing

import "time"

// Limiter controls a simulated device's callback cadence.
type Limiter interface {
	// WaitForNextCallback blocks until it's time for the next device
	// callback. Returns immediately if timing is behind schedule.
	WaitForNextCallback()

	// Reset resets the timing state, useful after a stream restart.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit, for tests that want
// callbacks to fire as fast as the CPU allows.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextCallback() {}
func (n *noOpLimiter) Reset()               {}

// CallbackDuration returns the wall-clock interval between device callbacks
// that each deliver framesPerCallback frames at sampleRate Hz.
func CallbackDuration(sampleRate, framesPerCallback int) time.Duration {
	return time.Duration(float64(framesPerCallback) / float64(sampleRate) * float64(time.Second))
}
