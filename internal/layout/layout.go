// Package layout loads keyboard layout descriptions and compiles them into
// views of buttons with resolved actions and keycodes.
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrParse is returned when a layout description is not valid YAML or does
	// not decode into a Layout.
	ErrParse = errors.New("layout: parse error")
	// ErrSchema is returned when a layout description violates the layout
	// schema, for example because of an unknown key.
	ErrSchema = errors.New("layout: schema violation")
)

// Layout is a keyboard description as written in a layout file.
type Layout struct {
	Margins  Margins               `yaml:"margins"`
	Views    map[string][]string   `yaml:"views"`
	Buttons  map[string]ButtonMeta `yaml:"buttons"`
	Outlines map[string]Outline    `yaml:"outlines"`
}

// Margins surround the rows of every view, in layout units.
type Margins struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Side   float64 `yaml:"side"`
}

// ButtonMeta describes one button id. At most one of Action, Keysym, Text and
// Modifier should be set; none means the id itself is submitted as text.
type ButtonMeta struct {
	Action   *ActionSpec `yaml:"action"`
	Keysym   *string     `yaml:"keysym"`
	Text     *string     `yaml:"text"`
	Modifier *string     `yaml:"modifier"`
	Label    *string     `yaml:"label"`
	Icon     *string     `yaml:"icon"`
	Outline  *string     `yaml:"outline"`
}

// Outline is a named button size.
type Outline struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ActionKind names the special actions a button can declare.
type ActionKind string

const (
	KindErase     ActionKind = "erase"
	KindShowPrefs ActionKind = "show_prefs"
	KindMinimize  ActionKind = "minimize"
	KindMaximize  ActionKind = "maximize"
	KindSetView   ActionKind = "set_view"
	KindLocking   ActionKind = "locking"
)

// ActionSpec is the "action" entry of a button. It is either a bare name
// ("erase") or a single-key mapping ({set_view: numbers}).
type ActionSpec struct {
	Kind    ActionKind
	View    string       // set_view
	Locking *LockingSpec // locking
}

// LockingSpec configures a view lock button.
type LockingSpec struct {
	LockView        string   `yaml:"lock_view"`
	UnlockView      string   `yaml:"unlock_view"`
	Pops            *bool    `yaml:"pops"`
	LooksLockedFrom []string `yaml:"looks_locked_from"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *ActionSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch kind := ActionKind(node.Value); kind {
		case KindErase, KindShowPrefs, KindMinimize, KindMaximize:
			a.Kind = kind
			return nil
		default:
			return fmt.Errorf("line %d: unknown action %q", node.Line, node.Value)
		}
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: action must have exactly one key", node.Line)
		}
		key, value := node.Content[0], node.Content[1]
		switch kind := ActionKind(key.Value); kind {
		case KindSetView:
			a.Kind = kind
			return value.Decode(&a.View)
		case KindLocking:
			var spec LockingSpec
			if err := value.Decode(&spec); err != nil {
				return err
			}
			a.Kind = kind
			a.Locking = &spec
			return nil
		default:
			return fmt.Errorf("line %d: unknown action %q", key.Line, key.Value)
		}
	default:
		return fmt.Errorf("line %d: action must be a name or a mapping", node.Line)
	}
}

// Load reads a layout description. The document is checked against the
// layout schema before it is decoded, so unknown keys anywhere are rejected.
func Load(r io.Reader) (*Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &l, nil
}

// LoadFile reads the layout description at path.
func LoadFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	l, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
