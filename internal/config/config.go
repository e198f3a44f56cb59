// Package config handles settings loading, validation and hot reloading for
// the keyboard daemon.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/adrg/xdg"

	"osk/internal/layout"
	"osk/internal/logging"
	"osk/internal/protocol"
)

// Settings holds the complete keyboard configuration.
type Settings struct {
	// App identifies the keyboard surface to the compositor.
	App AppSettings `toml:"app" json:"app" yaml:"app"`

	// Layouts names the layout description used per content purpose.
	Layouts LayoutSettings `toml:"layouts" json:"layouts" yaml:"layouts"`

	// Trie configures the word list behind suggestions.
	Trie TrieSettings `toml:"trie" json:"trie" yaml:"trie"`

	// ClickArea configures touch hit-testing.
	ClickArea ClickAreaSettings `toml:"click_area" json:"click_area" yaml:"click_area"`

	// Logging configuration.
	Logging LoggingSettings `toml:"logging" json:"logging" yaml:"logging"`

	// DBus configures the control service.
	DBus DBusSettings `toml:"dbus" json:"dbus" yaml:"dbus"`

	// Window configures the window host.
	Window WindowSettings `toml:"window" json:"window" yaml:"window"`

	// mu protects concurrent access to the settings.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// AppSettings identifies the application.
type AppSettings struct {
	ID    string `toml:"id" json:"id" yaml:"id"`
	Title string `toml:"title" json:"title" yaml:"title"`

	// Namespace is the layer-shell namespace of the keyboard surface.
	Namespace string `toml:"namespace" json:"namespace" yaml:"namespace"`
}

// LayoutSettings holds layout references. A reference is a file path or
// "builtin:<name>". Empty purpose entries fall back to Default.
type LayoutSettings struct {
	Default  string `toml:"default" json:"default" yaml:"default"`
	Terminal string `toml:"terminal" json:"terminal" yaml:"terminal"`
	Email    string `toml:"email" json:"email" yaml:"email"`
	URL      string `toml:"url" json:"url" yaml:"url"`
}

// TrieSettings locates the word list and its compiled cache.
type TrieSettings struct {
	// RawFile is a text word list, one "word [rank]" per line.
	RawFile string `toml:"raw_file" json:"raw_file" yaml:"raw_file"`

	// CachedFile is the SQLite cache compiled from RawFile.
	CachedFile string `toml:"cached_file" json:"cached_file" yaml:"cached_file"`
}

// ClickAreaSettings tunes proximity hit-testing.
type ClickAreaSettings struct {
	// IncreaseBy is how far, in layout units, a likely key grows into an
	// unlikely neighbor.
	IncreaseBy float64 `toml:"increase_by" json:"increase_by" yaml:"increase_by"`

	// Visible draws the expanded hit areas over the keys.
	Visible bool `toml:"visible" json:"visible" yaml:"visible"`
}

// LoggingSettings holds logging configuration.
type LoggingSettings struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// File is the log file path when Output includes a file.
	File string `toml:"file" json:"file" yaml:"file"`
}

// DBusSettings configures the session bus service.
type DBusSettings struct {
	Enabled    bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	BusName    string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`
	ObjectPath string `toml:"object_path" json:"object_path" yaml:"object_path"`
}

// WindowSettings configures the window host.
type WindowSettings struct {
	// Scale converts layout units to device independent pixels.
	Scale float64 `toml:"scale" json:"scale" yaml:"scale"`
}

// Service defaults.
const (
	DefaultBusName    = "org.mechanics.Osk"
	DefaultObjectPath = "/org/mechanics/Osk"
)

// DefaultIncreaseBy is the default click area expansion in layout units.
const DefaultIncreaseBy = 10

// Default returns settings with sensible defaults.
func Default() *Settings {
	return &Settings{
		App: AppSettings{
			ID:        "osk",
			Title:     "keyboard",
			Namespace: "osk",
		},
		Layouts: LayoutSettings{
			Default: layout.BuiltinPrefix + "us",
		},
		Trie: TrieSettings{
			RawFile:    DefaultWordsPath(),
			CachedFile: DefaultCachePath(),
		},
		ClickArea: ClickAreaSettings{
			IncreaseBy: DefaultIncreaseBy,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
			Output: "stderr",
			File:   logging.DefaultLogPath(),
		},
		DBus: DBusSettings{
			Enabled:    true,
			BusName:    DefaultBusName,
			ObjectPath: DefaultObjectPath,
		},
		Window: WindowSettings{
			Scale: 1,
		},
	}
}

// DefaultWordsPath returns $XDG_DATA_HOME/osk/words.txt.
func DefaultWordsPath() string {
	return filepath.Join(xdg.DataHome, "osk", "words.txt")
}

// DefaultCachePath returns $XDG_CACHE_HOME/osk/words.db.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "osk", "words.db")
}

// LayoutRefs returns every distinct layout reference, keyed by the name the
// controller uses for it. The default layout is named "default".
func (s *Settings) LayoutRefs() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := map[string]string{"default": s.Layouts.Default}
	for name, ref := range s.purposeRefs() {
		refs[name] = ref
	}
	return refs
}

// PurposeLayouts maps content purposes to layout names from LayoutRefs.
// Purposes without a dedicated layout are absent.
func (s *Settings) PurposeLayouts() map[protocol.ContentPurpose]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[protocol.ContentPurpose]string)
	for name := range s.purposeRefs() {
		p, err := protocol.PurposeFromName(name)
		if err == nil {
			out[p] = name
		}
	}
	return out
}

func (s *Settings) purposeRefs() map[string]string {
	refs := make(map[string]string)
	add := func(name, ref string) {
		if ref != "" {
			refs[name] = ref
		}
	}
	add(protocol.PurposeTerminal.String(), s.Layouts.Terminal)
	add(protocol.PurposeEmail.String(), s.Layouts.Email)
	add(protocol.PurposeURL.String(), s.Layouts.URL)
	return refs
}

// LoggingConfig converts the logging section. Unparseable values fall back
// to the logging defaults; Validate reports them.
func (s *Settings) LoggingConfig() *logging.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(s.Logging.Level); err == nil {
		cfg.Level = lvl
	}
	if f, err := logging.ParseFormat(s.Logging.Format); err == nil {
		cfg.Format = f
	}
	if s.Logging.Output != "" {
		cfg.Output = s.Logging.Output
	}
	if s.Logging.File != "" {
		cfg.FilePath = s.Logging.File
	}
	return cfg
}

// ApplyEnvOverrides applies environment variable overrides. Variables are
// prefixed with OSK_.
func (s *Settings) ApplyEnvOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := os.Getenv("OSK_LOG_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	if v := os.Getenv("OSK_LOG_FILE"); v != "" {
		s.Logging.File = v
	}
	if v := os.Getenv("OSK_CLICK_AREA_INCREASE_BY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.ClickArea.IncreaseBy = f
		}
	}
	if v := os.Getenv("OSK_LAYOUT"); v != "" {
		s.Layouts.Default = v
	}
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Settings{
		App:       s.App,
		Layouts:   s.Layouts,
		Trie:      s.Trie,
		ClickArea: s.ClickArea,
		Logging:   s.Logging,
		DBus:      s.DBus,
		Window:    s.Window,
	}
}

// Equal reports whether two settings carry the same values.
func (s *Settings) Equal(o *Settings) bool {
	a, b := s.Clone(), o.Clone()
	return a.App == b.App &&
		a.Layouts == b.Layouts &&
		a.Trie == b.Trie &&
		a.ClickArea == b.ClickArea &&
		a.Logging == b.Logging &&
		a.DBus == b.DBus &&
		a.Window == b.Window
}
