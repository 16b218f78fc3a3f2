package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter uses precise timing with drift compensation. Combines
// sleep for efficiency with busy-waiting for accuracy — used where a
// simulated device clock must hold its nominal rate without accumulating
// scheduler jitter.
type AdaptiveLimiter struct {
	period           time.Duration
	nextCallbackTime time.Time
	callbackCounter  int64
}

// NewAdaptiveLimiter paces callbacks period apart, with periodic resync.
func NewAdaptiveLimiter(period time.Duration) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		period:           period,
		nextCallbackTime: time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextCallback() {
	now := time.Now()
	sleepTime := a.nextCallbackTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextCallbackTime) {
				// busy-wait for times under 2ms, higher accuracy.
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextCallbackTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		a.nextCallbackTime = now
	}

	a.nextCallbackTime = a.nextCallbackTime.Add(a.period)
	a.callbackCounter++

	if a.callbackCounter%100 == 0 {
		drift := time.Now().Sub(a.nextCallbackTime)
		if drift.Abs() > 10*time.Millisecond {
			a.nextCallbackTime = a.nextCallbackTime.Add(drift / 10)
			slog.Debug("callback timing drift correction",
				"drift_ms", drift.Milliseconds(), "callback", a.callbackCounter)
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextCallbackTime = time.Now()
	a.callbackCounter = 0
}
