package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modoterra/worldconsole/internal/buildinfo"
	"github.com/modoterra/worldconsole/pkg/config"
	"github.com/modoterra/worldconsole/pkg/console"
	"github.com/modoterra/worldconsole/pkg/console/input"
	"github.com/modoterra/worldconsole/pkg/console/logsink"
	"github.com/modoterra/worldconsole/pkg/console/sigwatch"
	"github.com/modoterra/worldconsole/pkg/core"
	"github.com/modoterra/worldconsole/pkg/logging"
	"github.com/modoterra/worldconsole/pkg/service"
	tuimodel "github.com/modoterra/worldconsole/pkg/tui/model"
	"github.com/modoterra/worldconsole/pkg/world"
)

// runConsole starts the world and drives it from the console until the
// operator quits or a signal arrives. Failures before the console loop
// starts exit with code 1; afterwards the console's result decides.
func runConsole(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)

	headless := flagHeadless || !term.IsTerminal(int(os.Stdin.Fd()))
	sink := logsink.New(cfg.Console.SinkCapacity)
	logs, err := logging.New(sink, logging.Options{
		Level:     level,
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
		MaxFiles:  cfg.Log.MaxFiles,
		Journal:   headless && journal.StdoutIsJournalStream(),
	})
	if err != nil {
		return err
	}
	defer logs.Close()

	consoleLog := logs.Logger(core.SourceConsole)
	consoleLog.Info("starting worldconsole", "version", buildinfo.Version, "config", resolvedConfigPath())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv, err := world.New(cfg.ServerConfig(), logs.Logger(core.SourceWorld))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	sigs := sigwatch.New()
	defer sigs.Stop()

	keys := input.NewReader(input.DefaultQueue)
	notifier := service.NewNotifier()
	opts := console.Options{
		TickRate:       cfg.Console.TickRate,
		PollTimeout:    cfg.Console.PollTimeout,
		RingCapacity:   cfg.Console.RingCapacity,
		Signals:        sigs,
		HideTimestamps: !cfg.Console.ShowTimestamps,
		Logger:         consoleLog,
		OnStateChange: func(s console.State) {
			if s == console.StateShuttingDown {
				notifier.Stopping()
			}
		},
	}

	var screen console.Terminal = console.Headless{}
	var session *tuimodel.Session
	if headless {
		// Journald already receives every record.
		if !logs.Journal() {
			opts.Echo = os.Stdout
		}
		go input.ReadLines(ctx, os.Stdin, keys)
	} else {
		session, err = tuimodel.Start(keys, "worldconsole")
		if err != nil {
			return abortStart(srv, err)
		}
		defer session.Restore()
		screen = session
	}

	d := console.New(srv, sink, keys, screen, opts)
	if session != nil {
		go func() {
			select {
			case <-session.Done():
				d.RequestShutdown("terminal closed")
			case <-ctx.Done():
			}
		}()
	}

	notifier.Ready()
	notifier.Status("serving " + cfg.Server.Listen)
	res := d.Run(ctx)
	cancel()

	if diag := res.Diagnostic(); diag != "" {
		fmt.Fprintln(os.Stderr, diag)
	}
	if res.Code != console.ExitOK {
		return &exitError{code: res.Code}
	}
	return nil
}

// abortStart stops a server that started before the terminal failed, so the
// world is still saved and both failures reach the caller.
func abortStart(srv core.Server, err error) error {
	return errors.Join(fmt.Errorf("start terminal: %w", err), srv.SaveAndShutdown())
}
