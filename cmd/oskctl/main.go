// oskctl is the control CLI for the osk keyboard daemon.
package main

import (
	"context"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"osk/internal/config"
	"osk/internal/logging"
	"osk/internal/service"
)

// Version information (set at build time)
var version = "dev"

// Global flags
var (
	settingsPath string
	debugMode    bool
	jsonOutput   bool
	timeout      time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oskctl",
		Short: "Control the osk on-screen keyboard",
		Long: `oskctl - control utility for osk

Drives a running keyboard over the session bus and works with layout
descriptions and word lists offline.`,
		Example: `  # Show or hide the keyboard
  oskctl show
  oskctl hide

  # Check a layout description and print its keymaps
  oskctl compile mylayout.yaml --keymaps

  # Try the predictor
  oskctl predict hel`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if debugMode {
				cfg := logging.DefaultConfig()
				cfg.Level = logging.LevelDebug
				if l, err := logging.New(cfg); err == nil {
					logging.SetDefault(l)
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to the settings file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine readable output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Timeout for D-Bus calls")

	rootCmd.AddCommand(
		newShowCmd(),
		newHideCmd(),
		newToggleCmd(),
		newStatusCmd(),
		newSuggestionsCmd(),
		newMonitorCmd(),
		newCompileCmd(),
		newValidateCmd(),
		newLayoutsCmd(),
		newPredictCmd(),
		newSettingsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings returns the settings the daemon would use.
func loadSettings() (*config.Settings, string, error) {
	return config.LoadDiscovered(settingsPath)
}

// dial connects to the daemon named in the settings.
func dial() (*service.Client, error) {
	s, _, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return service.Dial(s.DBus.BusName, dbus.ObjectPath(s.DBus.ObjectPath))
}

// withClient runs fn against the daemon with the call timeout applied.
func withClient(parent context.Context, fn func(context.Context, *service.Client) error) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return fn(ctx, c)
}
