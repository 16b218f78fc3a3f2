package throttle_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/outboard/go-fconv/fconv/throttle"
)

// fakeSink is a synthetic downstream whose depth is driven directly by the
// test rather than by a real conveyor, so tests can pin it below, at, or
// above target without needing a consumer goroutine.
type fakeSink struct {
	depth     atomic.Int64
	forwarded []int
}

func (s *fakeSink) Send(item int) error {
	s.forwarded = append(s.forwarded, item)
	s.depth.Add(1)
	return nil
}

func (s *fakeSink) Count() int64 {
	return s.depth.Load()
}

// While the downstream depth never reaches target, every Send is forwarded.
func TestZeroDropBelowTarget(t *testing.T) {
	sink := &fakeSink{}
	th := throttle.New[int](sink, 600, 48000)

	for i := 0; i < 600; i++ {
		require.NoError(t, th.Send(i))
	}

	assert.Len(t, sink.forwarded, 600)
	for i, v := range sink.forwarded {
		assert.Equal(t, i, v)
	}
}

// Every forwarded item is exactly some input item, in order, with no
// duplication or synthesis, regardless of how many are dropped.
func TestIntegrityNeverFabricates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := rapid.Int64Range(1, 2000).Draw(t, "target")
		n := rapid.IntRange(1, 3000).Draw(t, "n")

		sink := &fakeSink{}
		th := throttle.New[int](sink, target, 48000)

		for i := 0; i < n; i++ {
			require.NoError(t, th.Send(i))
		}

		last := -1
		for _, v := range sink.forwarded {
			assert.Greater(t, v, last, "forwarded items must stay in input order with no repeats")
			last = v
		}
		assert.LessOrEqual(t, len(sink.forwarded), n)
	})
}

// If the downstream depth is pinned far above target (nothing ever drains
// it), the throttle must start dropping within a bounded number of samples
// rather than forwarding unconditionally.
func TestBoundedGrowthTriggersDrops(t *testing.T) {
	sink := &fakeSink{}
	const target = 10
	th := throttle.New[int](sink, target, 48000)

	// Prime well above target and hold it there: Send still increments
	// sink.depth on every forward, so depth only grows, modeling a downstream
	// consumer that has stalled.
	sink.depth.Store(target * 100)

	const n = 200_000
	dropped := 0
	for i := 0; i < n; i++ {
		before := len(sink.forwarded)
		require.NoError(t, th.Send(i))
		if len(sink.forwarded) == before {
			dropped++
		}
	}

	assert.Greater(t, dropped, 0, "throttle must eventually drop when depth stays far above target")
}

// Starting with the downstream depth at target, and a downstream whose depth
// tracks forwarded sends 1:1 and never drains, the controller's drop period
// stays long enough that most sends are still forwarded.
func TestSteadyAtTargetForwardsMost(t *testing.T) {
	sink := &fakeSink{}
	const target = 600
	sink.depth.Store(target)
	th := throttle.New[int](sink, target, 48000)

	for i := 0; i < 5000; i++ {
		require.NoError(t, th.Send(i))
	}

	assert.Greater(t, len(sink.forwarded), 5000/2)
}
