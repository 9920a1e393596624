package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rolandmarg/birthday-bot/internal/calendar"
	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/server"
	"github.com/rolandmarg/birthday-bot/internal/task"
)

func newRootCmd() *cobra.Command {
	var (
		cfgPath   string
		debugMode bool
		logCloser io.Closer
	)

	root := &cobra.Command{
		Use:           "birthday-bot",
		Short:         "Syncs birthdays from a spreadsheet into a calendar and notifies a group chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logCloser = setupLogging(debugMode)
			logStartupInfo()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				_ = logCloser.Close()
			}
			slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, config.FlagConfig, defaultConfigPath(), config.FlagDescConfig)
	root.PersistentFlags().BoolVar(&debugMode, config.FlagDebug, false, config.FlagDescDebug)

	root.AddCommand(
		newRunCmd(&cfgPath),
		newMonthlyCmd(&cfgPath),
		newSyncCmd(&cfgPath),
		newServeCmd(&cfgPath),
		newPurgeCmd(&cfgPath),
		newVersionCmd(),
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p
	}
	return "birthday-bot.yaml"
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily task: catch up missed days, notify today's birthdays",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}

			if !daemon {
				return app.Orch.Daily(ctx)
			}

			hour, minute, err := app.Cfg.DailyClock()
			if err != nil {
				return err
			}
			d := &task.Daemon{
				Orch:       app.Orch,
				Hour:       hour,
				Minute:     minute,
				RunAtStart: app.Cfg.Schedule.RunAtStart,
			}
			return d.Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&daemon, config.FlagDaemon, false, config.FlagDescDaemon)
	return cmd
}

func newMonthlyCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "monthly",
		Short: "Run the monthly task: sync the calendar, send the month's digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}
			return app.Orch.Monthly(ctx)
		},
	}
}

func newSyncCmd(cfgPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile source records against the mirror calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}

			target := app.Target
			if dryRun {
				// Run against a seeded in-memory copy so the real
				// calendar stays untouched.
				existing, err := app.Target.Events(ctx, calendar.ReadOptions{})
				if err != nil {
					return err
				}
				mem := calendar.NewMemoryCalendar()
				mem.Seed(existing...)
				target = mem
				slog.Info(config.MsgDryRun, config.LogKeyComponent, config.CompMain)
			}

			res, err := app.Engine.Sync(ctx, app.Source, target)
			if err != nil {
				return err
			}
			fmt.Printf("added=%d skipped=%d errors=%d\n", res.Added, res.Skipped, res.Errors)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, config.FlagDryRun, false, config.FlagDescDryRun)
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the mirror calendar as an ICS feed over localhost HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}

			srv := server.NewFeedServer(app.Cfg.Server.Port)
			// The mirror is re-read whenever its file changes, so sync
			// runs in other processes show up without a restart.
			srv.Source = app.ICS
			return srv.Start(ctx)
		},
	}
}

func newPurgeCmd(cfgPath *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all birthday events from the mirror calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if !yes {
				return errors.New(config.ErrPurgeDenied)
			}

			app, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}

			events, err := app.Target.Events(ctx, calendar.ReadOptions{})
			if err != nil {
				return err
			}

			matcher := calendar.Matcher{}
			deleted := 0
			for _, ev := range events {
				if !matcher.IsBirthdayEvent(ev) {
					continue
				}
				ok, err := app.Target.Delete(ctx, ev.ID)
				if err != nil {
					return err
				}
				if ok {
					deleted++
				}
			}

			slog.Info(config.MsgPurged,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyCount, deleted,
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, config.FlagYes, false, config.FlagDescYes)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show application version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf(config.MsgVersionOutput,
				config.AppName,
				config.Version,
				runtime.GOOS,
				runtime.GOARCH,
			)
		},
	}
}

