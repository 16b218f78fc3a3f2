package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli"

	"github.com/outboard/go-fconv/fconv"
	"github.com/outboard/go-fconv/fconv/backend/terminal"
	"github.com/outboard/go-fconv/fconv/config"
)

func main() {
	// The default logger writes readable, leveled, colorized output to
	// stderr until a dashboard takes over (terminal.Dashboard.Init swaps in
	// its own on-screen scrollback handler; headless.Dashboard leaves this
	// one in place).
	slog.SetDefault(slog.New(log.New(os.Stderr)))

	app := cli.NewApp()
	app.Name = "fconv"
	app.Description = "Realtime multi-channel audio convolution engine"
	app.Usage = "fconv"
	app.Version = "1.0.0"
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("fconv exited with error", "error", err)
		os.Exit(1)
	}
}

// run wires the configuration, dashboard, and Session, then drives the
// quit/reload/stall lifecycle. The operator's only input is the q/r
// keystrokes the terminal dashboard reads directly off the alternate screen.
func run(c *cli.Context) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("fconv: %w", err)
	}

	dash := terminal.New()

	for {
		sess := fconv.New(cfg, dash)
		if err := sess.Init(); err != nil {
			return fmt.Errorf("fconv: %w", err)
		}

		result := sess.Run()

		if err := sess.Stop(); err != nil {
			slog.Error("error stopping session", "error", err)
		}

		switch result {
		case fconv.Quit:
			return nil
		case fconv.Reload:
			slog.Info("reloading session")
			continue
		case fconv.StreamsStopped:
			slog.Warn("streams stopped, restarting session")
			continue
		}
	}
}
