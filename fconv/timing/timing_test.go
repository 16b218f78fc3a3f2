package timing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/outboard/go-fconv/fconv/timing"
)

func TestCallbackDurationAt48kHz(t *testing.T) {
	d := timing.CallbackDuration(48000, 480)
	assert.Equal(t, 10*time.Millisecond, d)
}

func TestNoOpLimiterNeverBlocks(t *testing.T) {
	l := timing.NewNoOpLimiter()
	start := time.Now()
	for i := 0; i < 1000; i++ {
		l.WaitForNextCallback()
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	l.Reset()
}

func TestTickerLimiterPaces(t *testing.T) {
	l := timing.NewTickerLimiter(5 * time.Millisecond)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		l.WaitForNextCallback()
	}
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestAdaptiveLimiterPaces(t *testing.T) {
	l := timing.NewAdaptiveLimiter(2 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 5; i++ {
		l.WaitForNextCallback()
	}
	assert.GreaterOrEqual(t, time.Since(start), 8*time.Millisecond)
	l.Reset()
}
