package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pomobeat/internal/storage"
	"pomobeat/internal/ui/preferences"
)

// NewConfigCmd creates the settings file commands.
func NewConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the settings file",
	}
	cmd.AddCommand(newConfigPathCmd(flags), newConfigShowCmd(flags), newConfigInitCmd(flags))
	return cmd
}

func newConfigPathCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := flags.resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return nil
		},
	}
}

func newConfigShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := flags.loadSettings()
			if err != nil {
				return err
			}
			serialized, err := storage.MarshalSettings(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(serialized)
			return err
		},
	}
}

func newConfigInitCmd(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := flags.resolveConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("inspect settings file: %w", err)
			}
			if err := storage.SaveSettingsTo(configPath, preferences.DefaultSettings()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
