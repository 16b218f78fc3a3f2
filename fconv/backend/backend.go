// Package backend defines the pluggable dashboard surface the supervisor
// loop drives: something that renders telemetry once per tick and reports
// operator keystrokes back to the session.
package backend

import "github.com/outboard/go-fconv/fconv/telemetry"

// Command is an operator action reported by a Dashboard's Update.
type Command int

const (
	// CommandNone means no operator input arrived this tick.
	CommandNone Command = iota
	// CommandQuit corresponds to the "q" keystroke.
	CommandQuit
	// CommandReload corresponds to the "r" keystroke.
	CommandReload
	// CommandUnrecognized is any other keystroke, logged as a warning by the
	// caller rather than acted on.
	CommandUnrecognized
)

// Dashboard renders per-channel RMS, queue depth, DSP load, missed samples,
// and latency, and surfaces operator keystrokes.
type Dashboard interface {
	// Init prepares the dashboard for rendering.
	Init(cfg Config) error

	// Update renders one frame from snap and the given downstream queue
	// depth, and returns the operator command (if any) observed this tick.
	Update(snap telemetry.Snapshot, queueDepth int64, dspLoadPercent float64) (Command, error)

	// Cleanup releases any dashboard resources (e.g. the terminal screen).
	Cleanup() error
}

// Config holds dashboard construction parameters.
type Config struct {
	// Title is shown in the dashboard's header.
	Title string
}
