// osk is the on-screen keyboard daemon. It compiles the configured layouts,
// runs the input coordination controller, exports the org.mechanics.Osk
// D-Bus service and shows the keyboard window.
package main

import (
	"os"

	"gioui.org/app"
	"github.com/spf13/cobra"
)

// Version information (set at build time)
var version = "dev"

// Global flags
var (
	settingsPath string
	debugMode    bool
	headless     bool
	layoutRef    string
	showHits     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "osk",
		Short: "Predictive on-screen keyboard",
		Long: `osk - predictive on-screen keyboard

Loads the layout descriptions named in the settings file, compiles their
keymaps and shows the keyboard. Input method and virtual keyboard traffic
goes through the org.mechanics.Osk service on the session bus.

Settings are looked up in $MECHANIX_KEYBOARD_SETTINGS_PATH, --settings,
./settings.toml, $XDG_CONFIG_HOME/osk/settings.toml and
/usr/share/osk/settings.toml, in that order.`,
		Example: `  # Run with the discovered settings
  osk

  # Run with a specific layout and debug logging
  osk --layout builtin:us --debug

  # Run without a window, driving only the D-Bus service
  osk --headless`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to the settings file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Do not open the keyboard window")
	rootCmd.Flags().StringVar(&layoutRef, "layout", "", "Default layout file or builtin:<name>, overriding the settings")
	rootCmd.Flags().BoolVar(&showHits, "show-hit-areas", false, "Draw the expanded touch areas over the keys")

	// Gio needs the main goroutine, so the command runs beside it.
	go func() {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}
