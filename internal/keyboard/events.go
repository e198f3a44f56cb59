package keyboard

import (
	"osk/internal/action"
	"osk/internal/keymap"
	"osk/internal/layout"
	"osk/internal/protocol"
)

// Event is handled by the controller. The set is closed: InputMethod,
// Minimize, Maximize, Toggle, KeyPressed, Erase, ApplyModifiers,
// SuggestionPressed and ButtonReleased.
type Event interface {
	isEvent()
}

// InputMethod wraps an event from the input method peer.
type InputMethod struct {
	Event protocol.InputMethodEvent
}

// Minimize collapses the keyboard.
type Minimize struct{}

// Maximize restores the full keyboard.
type Maximize struct{}

// Toggle flips between minimized and maximized.
type Toggle struct{}

// KeyPressed taps the key with the given code.
type KeyPressed struct {
	Code keymap.KeyCode
}

// Erase taps BackSpace.
type Erase struct{}

// ApplyModifiers replaces the active modifiers.
type ApplyModifiers struct {
	Modifiers action.ModifierSet
}

// SuggestionPressed replaces the word being typed with Text.
type SuggestionPressed struct {
	Text string
}

// ButtonReleased performs the action of a button the user let go of.
type ButtonReleased struct {
	Button *layout.KeyButton
}

// barrier is answered once every earlier event has been handled.
type barrier struct {
	done chan struct{}
}

func (InputMethod) isEvent()       {}
func (Minimize) isEvent()          {}
func (Maximize) isEvent()          {}
func (Toggle) isEvent()            {}
func (KeyPressed) isEvent()        {}
func (Erase) isEvent()             {}
func (ApplyModifiers) isEvent()    {}
func (SuggestionPressed) isEvent() {}
func (ButtonReleased) isEvent()    {}
func (barrier) isEvent()           {}
