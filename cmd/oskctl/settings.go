package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"osk/internal/config"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and create the settings file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file the daemon would load",
		Long: `Print the settings file the daemon would load. With --debug every
location searched is listed too, in order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			path, err := config.Discover(settingsPath)
			switch {
			case err == nil:
				fmt.Fprintln(out, path)
			case errors.Is(err, config.ErrNotFound):
				fmt.Fprintln(out, "(none, using defaults)")
			default:
				return err
			}
			if debugMode {
				for _, c := range config.Candidates(settingsPath) {
					fmt.Fprintf(out, "  %s\n", c)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Long:  `Print the effective settings, after environment overrides, as TOML.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := loadSettings()
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s.Clone())
			}
			return s.Encode(cmd.OutOrStdout())
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default settings",
		Long: `Write the default settings as TOML to path, or to
$XDG_CONFIG_HOME/osk/settings.toml. An existing file is kept unless
--force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := config.UserSettingsPath()
				if err != nil {
					return err
				}
				path = p
			}
			if !force && fileExists(path) {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
