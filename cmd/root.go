package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pomobeat/internal/logging"
	"pomobeat/internal/storage"
	"pomobeat/internal/ui/preferences"
)

type rootFlags struct {
	configPath    string
	logLevel      string
	isolatedTicks bool
}

// NewRootCmd creates the pomobeat command tree. Without a subcommand it
// starts the tray app.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Pomodoro timer with ambient playlists",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(cmd, flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"settings file (default is <user config dir>/pomobeat/settings.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info",
		"log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.isolatedTicks, "isolated-ticks", false,
		"run the countdown on a dedicated worker goroutine")

	root.AddCommand(NewTrayCmd(flags), NewTermCmd(flags), NewConfigCmd(flags))
	return root
}

func (flags *rootFlags) resolveConfigPath() (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return storage.ResolveConfigPath(appName)
}

func (flags *rootFlags) loadSettings() (preferences.Settings, string, error) {
	var (
		settings   preferences.Settings
		configPath = flags.configPath
		err        error
	)
	if configPath == "" {
		settings, configPath, err = storage.LoadSettings(appName)
	} else {
		settings, err = storage.LoadSettingsFrom(configPath)
	}
	if err != nil {
		return settings, configPath, err
	}
	if flags.isolatedTicks {
		settings.IsolatedTicks = true
	}
	return settings, configPath, nil
}

func (flags *rootFlags) logger(options logging.Options) (zerolog.Logger, io.Closer, error) {
	options.Level = flags.logLevel
	logger, closer, err := logging.New(options)
	if err != nil {
		return logger, closer, fmt.Errorf("configure logging: %w", err)
	}
	return logger, closer, nil
}
