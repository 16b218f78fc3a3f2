package fconv

import (
	"log/slog"
	"runtime"

	"golang.org/x/sys/unix"
)

// SetMaxPriority locks the calling goroutine to its OS thread and asks the
// scheduler to elevate that thread's priority, so the DSP worker's
// scheduling jitter stays bounded. This is best-effort: without cgo there is
// no way to request a realtime scheduling class, and on platforms or under
// permissions where Setpriority is refused the worker keeps running at the
// default priority — the degradation is logged, never fatal. It affects
// audio quality, not correctness.
func SetMaxPriority(log *slog.Logger) {
	runtime.LockOSThread()

	const highPriority = -10
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, highPriority); err != nil {
		log.Warn("could not elevate dsp worker thread priority, continuing at default priority", "error", err)
	}
}
