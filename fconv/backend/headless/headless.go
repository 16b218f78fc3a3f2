// Package headless implements backend.Dashboard with no terminal at all —
// logging-only telemetry, for CI and end-to-end tests that don't want a real
// tcell screen.
package headless

import (
	"log/slog"

	"github.com/outboard/go-fconv/fconv/backend"
	"github.com/outboard/go-fconv/fconv/telemetry"
)

// Dashboard logs a periodic summary instead of drawing anything, and never
// produces an operator command on its own — tests that want to exercise
// quit/reload drive it through Inject.
type Dashboard struct {
	cfg       backend.Config
	tickCount int
	logEvery  int
	injected  []backend.Command
}

// New returns a headless dashboard that logs a summary line every logEvery
// ticks (0 disables periodic logging).
func New(logEvery int) *Dashboard {
	return &Dashboard{logEvery: logEvery}
}

func (d *Dashboard) Init(cfg backend.Config) error {
	d.cfg = cfg
	slog.Info("headless dashboard initialized", "title", cfg.Title)
	return nil
}

// Inject queues a command to be returned by the next Update call, letting
// tests simulate an operator keystroke without a real terminal.
func (d *Dashboard) Inject(cmd backend.Command) {
	d.injected = append(d.injected, cmd)
}

func (d *Dashboard) Update(snap telemetry.Snapshot, queueDepth int64, dspLoadPercent float64) (backend.Command, error) {
	d.tickCount++
	if d.logEvery > 0 && d.tickCount%d.logEvery == 0 {
		slog.Info("dashboard tick",
			"queue_depth", queueDepth,
			"dsp_load_percent", dspLoadPercent,
			"missed_samples", snap.MissedSampleCount,
			"latency", snap.TotalLatency,
			"volumes", snap.OutputBufferVolumes)
	}

	if len(d.injected) == 0 {
		return backend.CommandNone, nil
	}
	cmd := d.injected[0]
	d.injected = d.injected[1:]
	return cmd, nil
}

func (d *Dashboard) Cleanup() error {
	slog.Info("headless dashboard cleanup", "ticks", d.tickCount)
	return nil
}
