package main

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pomobeat/internal/core/alert"
	"pomobeat/internal/logging"
	"pomobeat/internal/ui/terminal"
)

// NewTermCmd creates the terminal UI command.
func NewTermCmd(flags *rootFlags) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "term",
		Short: "Run the timer in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if logFile == "" {
				path, err := logging.DefaultFile(appName)
				if err != nil {
					return err
				}
				logFile = path
			}
			logger, closer, err := flags.logger(logging.Options{File: logFile})
			if err != nil {
				return err
			}
			defer closer.Close()

			settings, configPath, err := flags.loadSettings()
			if err != nil {
				logger.Warn().Err(err).Str("path", configPath).Msg("using default settings")
			}

			var program atomic.Pointer[tea.Program]
			runtime := startEngine(ctx, settings, programNotifier(settings.Notifications, &program), logger)
			defer runtime.Close()

			initial, err := runtime.engine.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("read session state: %w", err)
			}
			events := runtime.engine.Subscribe(64)
			ui := tea.NewProgram(
				terminal.New(runtime.engine, events, initial),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)
			program.Store(ui)
			runtime.watch(ctx, configPath, nil)

			if _, err := ui.Run(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("run terminal ui: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "log file (default is <user cache dir>/pomobeat/pomobeat.log)")
	return cmd
}

// programNotifier routes alert banners to program. Alerts may fire before
// the program is stored; those banners are dropped.
func programNotifier(enabled bool, program *atomic.Pointer[tea.Program]) alert.Notifier {
	if !enabled {
		return terminal.NewNotifier(nil)
	}
	return terminal.NewNotifier(func(msg tea.Msg) {
		if current := program.Load(); current != nil {
			current.Send(msg)
		}
	})
}
