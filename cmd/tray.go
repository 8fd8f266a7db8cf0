package main

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pomobeat/internal/core/session"
	"pomobeat/internal/logging"
	"pomobeat/internal/platform"
	"pomobeat/internal/storage"
	"pomobeat/internal/ui/preferences"
	"pomobeat/internal/ui/tray"
)

// NewTrayCmd creates the system tray command.
func NewTrayCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the timer in the system tray",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(cmd, flags)
		},
	}
}

func runTray(cmd *cobra.Command, flags *rootFlags) error {
	ctx := cmd.Context()
	logger, closer, err := flags.logger(logging.Options{Console: true})
	if err != nil {
		return err
	}
	defer closer.Close()

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			logger.Info().Msg("already running, asking the other instance to show itself")
			if err := platform.SignalRunning(appName, platform.CommandShow); err != nil {
				return fmt.Errorf("single instance: %w", err)
			}
			return nil
		}
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, configPath, err := flags.loadSettings()
	if err != nil {
		logger.Warn().Err(err).Str("path", configPath).Msg("using default settings")
	}

	fyneApp := app.NewWithID("io.pomobeat.app")
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("system tray unsupported on this platform")
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("pomobeat is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	runtime := startEngine(ctx, settings, tray.NewNotifier(fyneApp, settings.Notifications), logger)
	defer runtime.Close()
	engine := runtime.engine

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if err := storage.SaveSettingsTo(configPath, updated); err != nil {
			logger.Error().Err(err).Msg("save settings")
		}
		runtime.apply(updated)
		applyLoginItem(updated, logger)
	})
	if settings.LaunchAtLogin {
		applyLoginItem(settings, logger)
	}

	var current session.Snapshot
	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnPreferences: prefsWindow.Show,
		OnToggleRun:   engine.ToggleRun,
		OnReset:       engine.Reset,
		OnMode:        engine.ChangeMode,
		OnNextTrack:   engine.NextTrack,
		OnPrevTrack:   engine.PreviousTrack,
		OnToggleAudio: func() {
			engine.SetAudioEnabled(!current.AudioEnabled)
		},
		OnQuit: fyneApp.Quit,
	})

	if snapshot, err := engine.Snapshot(ctx); err == nil {
		current = snapshot
		trayManager.Apply(snapshot)
	}
	desktopApp.SetSystemTrayIcon(theme.MediaPauseIcon())

	events := engine.Subscribe(32)
	go func() {
		for event := range events {
			fyne.Do(func() {
				if event.Snapshot.Running != current.Running {
					desktopApp.SetSystemTrayIcon(trayIcon(event.Snapshot))
				}
				current = event.Snapshot
				trayManager.Apply(event.Snapshot)
			})
		}
	}()

	go guard.Serve(ctx, logger, func(command string) {
		if command == platform.CommandShow {
			fyne.Do(prefsWindow.Show)
		}
	})

	runtime.watch(ctx, configPath, func(updated preferences.Settings) {
		fyne.Do(func() {
			prefsWindow.UpdateSettings(updated)
		})
	})

	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	logger.Info().Str("config", configPath).Msg("tray ready")
	fyneApp.Run()
	return nil
}

func applyLoginItem(settings preferences.Settings, logger zerolog.Logger) {
	item, err := platform.NewLoginItem(appName, "tray")
	if err == nil {
		err = item.Apply(settings.LaunchAtLogin)
	}
	if err != nil {
		logger.Warn().Err(err).Bool("enabled", settings.LaunchAtLogin).Msg("login item not updated")
	}
}

func trayIcon(snapshot session.Snapshot) fyne.Resource {
	if snapshot.Running {
		return theme.MediaPlayIcon()
	}
	return theme.MediaPauseIcon()
}
