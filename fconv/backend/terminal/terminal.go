// Package terminal implements backend.Dashboard with a tcell full-screen
// display: per-channel RMS level bars, output queue depth, DSP load,
// missed-sample count, latency, and a scrolling log panel.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/outboard/go-fconv/fconv/backend"
	"github.com/outboard/go-fconv/fconv/backend/terminal/render"
	"github.com/outboard/go-fconv/fconv/telemetry"
)

const (
	minTermWidth  = 60
	minTermHeight = 18
	barWidth      = 30
	headerRow     = 0
	firstMeterRow = 2
)

// Dashboard implements backend.Dashboard using tcell for terminal rendering.
type Dashboard struct {
	screen    tcell.Screen
	running   bool
	logBuffer *render.LogBuffer
	cfg       backend.Config
	pending   []backend.Command
}

// New creates a new terminal dashboard.
func New() *Dashboard {
	return &Dashboard{}
}

// Init initializes the tcell screen, redirects logging into an on-screen
// scrollback, and starts a signal-handling goroutine for graceful shutdown.
func (d *Dashboard) Init(cfg backend.Config) error {
	d.cfg = cfg

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: init screen: %w", err)
	}

	d.screen = screen
	d.running = true
	d.pending = nil

	d.logBuffer = render.NewLogBuffer(200)
	handler := render.NewLogBufferHandler(d.logBuffer, slog.LevelDebug)
	slog.SetDefault(slog.New(handler))

	d.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	d.screen.Clear()

	go d.handleSignals()

	return nil
}

// Update polls for the single keystroke the operator can send (q/r), renders
// one frame of the dashboard, and returns the decoded command.
func (d *Dashboard) Update(snap telemetry.Snapshot, queueDepth int64, dspLoadPercent float64) (backend.Command, error) {
	cmd := backend.CommandNone

	for d.screen.HasPendingEvent() {
		ev := d.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if c := decodeKey(ev); c != backend.CommandNone {
				cmd = c
			}
		case *tcell.EventResize:
			d.screen.Sync()
		}
	}

	if len(d.pending) > 0 {
		cmd = d.pending[0]
		d.pending = d.pending[1:]
	}

	if cmd == backend.CommandQuit {
		d.running = false
	}

	if !d.running {
		return cmd, nil
	}

	d.render(snap, queueDepth, dspLoadPercent)
	d.screen.Show()

	return cmd, nil
}

// Cleanup tears down the tcell screen.
func (d *Dashboard) Cleanup() error {
	if d.screen != nil {
		d.screen.Fini()
	}
	return nil
}

func decodeKey(ev *tcell.EventKey) backend.Command {
	if ev.Key() == tcell.KeyCtrlC {
		return backend.CommandQuit
	}
	if ev.Key() != tcell.KeyRune {
		return backend.CommandNone
	}
	switch ev.Rune() {
	case 'q':
		return backend.CommandQuit
	case 'r':
		return backend.CommandReload
	default:
		return backend.CommandUnrecognized
	}
}

func (d *Dashboard) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	<-signals
	d.running = false
	d.pending = append(d.pending, backend.CommandQuit)
}

func (d *Dashboard) render(snap telemetry.Snapshot, queueDepth int64, dspLoadPercent float64) {
	termWidth, termHeight := d.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		d.screen.Clear()
		d.drawLine(0, termHeight/2, fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight),
			tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	d.screen.Clear()

	title := d.cfg.Title
	if title == "" {
		title = "go-fconv"
	}
	d.drawLine(1, headerRow, fmt.Sprintf(" %s — q: quit, r: reload ", title),
		tcell.StyleDefault.Foreground(tcell.ColorYellow))

	row := firstMeterRow
	for ch, v := range snap.OutputBufferVolumes {
		bar := render.LevelBar(v, barWidth)
		line := fmt.Sprintf("ch%d [%s] %.4f", ch, bar, v)
		d.drawLine(1, row, line, tcell.StyleDefault.Foreground(tcell.ColorGreen))
		row++
	}

	row++
	d.drawLine(1, row, fmt.Sprintf("queue depth:    %d", queueDepth), tcell.StyleDefault)
	row++
	d.drawLine(1, row, fmt.Sprintf("dsp load:       %.1f%%", dspLoadPercent), tcell.StyleDefault)
	row++
	d.drawLine(1, row, fmt.Sprintf("missed samples: %d", snap.MissedSampleCount), tcell.StyleDefault)
	row++
	d.drawLine(1, row, fmt.Sprintf("latency:        %s", snap.TotalLatency), tcell.StyleDefault)
	row += 2

	d.drawLogs(1, row, termWidth-2, termHeight)
}

func (d *Dashboard) drawLine(x, y int, s string, style tcell.Style) {
	for i, ch := range s {
		d.screen.SetContent(x+i, y, ch, nil, style)
	}
}

func (d *Dashboard) drawLogs(startX, startY, width, termHeight int) {
	available := termHeight - startY - 1
	if available <= 0 || width <= 0 {
		return
	}

	logs := d.logBuffer.GetRecent(available)

	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)

	for i, entry := range logs {
		style := infoStyle
		switch entry.Level {
		case slog.LevelDebug:
			style = debugStyle
		case slog.LevelWarn:
			style = warnStyle
		case slog.LevelError:
			style = errStyle
		}

		line := render.FormatLogEntry(entry)
		if runes := []rune(line); len(runes) > width {
			line = string(runes[:width])
		}
		d.drawLine(startX, startY+i, line, style)
	}
}
