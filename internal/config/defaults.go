package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// SettingsEnv names the environment variable that overrides settings
// discovery.
const SettingsEnv = "MECHANIX_KEYBOARD_SETTINGS_PATH"

// SettingsFile is the settings file name looked up in each location.
const SettingsFile = "settings.toml"

// SystemSettingsPath is the distribution-wide settings file.
var SystemSettingsPath = filepath.Join("/usr/share/osk", SettingsFile)

// ErrNotFound is returned by Discover when no settings file exists.
var ErrNotFound = errors.New("config: no settings file found")

// Candidates lists the settings locations in lookup order:
//   - $MECHANIX_KEYBOARD_SETTINGS_PATH
//   - the --settings flag
//   - ./settings.toml
//   - osk/settings.toml under the XDG config directories
//   - /usr/share/osk/settings.toml
func Candidates(flagPath string) []string {
	var paths []string
	if v := os.Getenv(SettingsEnv); v != "" {
		paths = append(paths, v)
	}
	if flagPath != "" {
		paths = append(paths, flagPath)
	}
	paths = append(paths, SettingsFile)
	if p, err := xdg.SearchConfigFile(filepath.Join("osk", SettingsFile)); err == nil {
		paths = append(paths, p)
	}
	return append(paths, SystemSettingsPath)
}

// Discover returns the first settings file that exists.
func Discover(flagPath string) (string, error) {
	for _, p := range Candidates(flagPath) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// UserSettingsPath is where settings are written when none exist yet.
func UserSettingsPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("osk", SettingsFile))
}
