package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ReloadDebounce is how long the settings file must be quiet before a
// change is reloaded.
const ReloadDebounce = 100 * time.Millisecond

// Load reads settings from path, applies environment overrides and
// validates the result. A missing file yields the defaults. The format
// follows the extension: .yaml/.yml and .json, TOML otherwise.
func Load(path string) (*Settings, error) {
	s, err := loadFromFile(path)
	if err != nil {
		return nil, err
	}
	s.ApplyEnvOverrides()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return s, nil
}

// LoadDiscovered finds the settings file via Discover and loads it. When no
// file exists the returned path is empty and the settings are the defaults.
func LoadDiscovered(flagPath string) (*Settings, string, error) {
	path, err := Discover(flagPath)
	if errors.Is(err, ErrNotFound) {
		s := Default()
		s.ApplyEnvOverrides()
		if err := s.Validate(); err != nil {
			return nil, "", fmt.Errorf("validation failed: %w", err)
		}
		return s, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	s, err := Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("load %s: %w", path, err)
	}
	return s, path, nil
}

// loadFromFile decodes path over the defaults.
func loadFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	s := Default()
	if err := decode(path, data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(path string, data []byte, s *Settings) error {
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		md, err := toml.Decode(string(data), s)
		if err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("decode TOML: unknown key %q", undecoded[0].String())
		}
	}
	return nil
}

// Encode writes s as TOML.
func (s *Settings) Encode(w io.Writer) error {
	c := s.Clone()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Save writes s as TOML to path, creating parent directories.
func Save(s *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Loader loads a settings file and reloads it when it changes.
type Loader struct {
	path     string
	settings *Settings
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	onChange []func(*Settings)
	ctx      context.Context
	cancel   context.CancelFunc
	errChan  chan error
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		path:    path,
		errChan: make(chan error, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Load reads the settings file.
func (l *Loader) Load() (*Settings, error) {
	s, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.settings = s
	l.mu.Unlock()
	return s, nil
}

// Settings returns the current settings.
func (l *Loader) Settings() *Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// Path returns the watched file.
func (l *Loader) Path() string {
	return l.path
}

// Watch starts watching the settings file. Changes are reloaded after
// ReloadDebounce and handed to the OnChange callbacks; invalid files are
// reported on Errors and leave the current settings in place.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	l.watcher = watcher

	// Editors replace files, so watch the directory.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case <-l.ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(ReloadDebounce, l.reload)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.report(err)
		}
	}
}

func (l *Loader) reload() {
	if l.ctx.Err() != nil {
		return
	}
	s, err := Load(l.path)
	if err != nil {
		l.report(fmt.Errorf("reload settings: %w", err))
		return
	}

	l.mu.Lock()
	l.settings = s
	callbacks := l.onChange
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(s)
	}
}

func (l *Loader) report(err error) {
	select {
	case l.errChan <- err:
	default:
	}
}

// OnChange registers a callback invoked with every reloaded configuration.
func (l *Loader) OnChange(cb func(*Settings)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, cb)
	l.mu.Unlock()
}

// Errors returns a channel for receiving errors that occur during watching.
func (l *Loader) Errors() <-chan error {
	return l.errChan
}

// Close stops the watcher and releases resources.
func (l *Loader) Close() error {
	l.cancel()
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
