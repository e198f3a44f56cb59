package keyboard

import (
	"maps"
	"slices"

	"osk/internal/action"
	"osk/internal/protocol"
	"osk/internal/proximity"
)

// BaseView is the view shown after activation and maximizing.
const BaseView = "base"

// MinimizeView is shown while the keyboard is minimized, when the layout
// declares it.
const MinimizeView = "minimize"

// Mode is the top-level state of the keyboard.
type Mode int

const (
	Inactive Mode = iota
	ActiveMaximized
	ActiveMinimized
)

func (m Mode) String() string {
	switch m {
	case ActiveMaximized:
		return "active-maximized"
	case ActiveMinimized:
		return "active-minimized"
	default:
		return "inactive"
	}
}

// State is a snapshot of the coordination state. Snapshots are immutable:
// readers must not modify the maps or slices they hold.
type State struct {
	Visible   bool
	Maximized bool

	// Purpose is only meaningful when HasPurpose is set.
	HasPurpose bool
	Purpose    protocol.ContentPurpose

	// Layout names the layout in use and CurrentView the view shown.
	Layout      string
	CurrentView string

	// Latched is set while a latching lock view is shown; the next
	// submitted key returns to LatchReturn.
	Latched     bool
	LatchReturn string

	Modifiers     action.ModifierSet
	Probabilities proximity.Probabilities
	Suggestions   []string
	// SuggestedFor is the lower-cased word the suggestions complete.
	SuggestedFor string
	// TypedWord is the word before the cursor as the peer reported it.
	// Picking a suggestion deletes len(TypedWord) bytes.
	TypedWord string

	Geometry Geometry
}

// Mode derives the top-level state.
func (s *State) Mode() Mode {
	switch {
	case !s.Visible:
		return Inactive
	case s.Maximized:
		return ActiveMaximized
	default:
		return ActiveMinimized
	}
}

func (s *State) clone() *State {
	c := *s
	c.Modifiers = maps.Clone(s.Modifiers)
	c.Probabilities = maps.Clone(s.Probabilities)
	c.Suggestions = slices.Clone(s.Suggestions)
	return &c
}
