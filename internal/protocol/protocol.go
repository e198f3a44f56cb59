// Package protocol defines the messages exchanged with the keyboard's
// peers: the input method, the virtual keyboard and the window host. Each
// direction is a closed set of message types.
package protocol

import (
	"fmt"
	"os"
)

// ContentPurpose classifies the text field being edited, as reported by
// the input method (text-input-unstable-v3 numbering).
type ContentPurpose uint32

const (
	PurposeNormal ContentPurpose = iota
	PurposeAlpha
	PurposeDigits
	PurposeNumber
	PurposePhone
	PurposeURL
	PurposeEmail
	PurposeName
	PurposePassword
	PurposePin
	PurposeDate
	PurposeTime
	PurposeDatetime
	PurposeTerminal
)

var purposeNames = [...]string{
	"normal", "alpha", "digits", "number", "phone", "url", "email", "name",
	"password", "pin", "date", "time", "datetime", "terminal",
}

func (p ContentPurpose) String() string {
	if int(p) < len(purposeNames) {
		return purposeNames[p]
	}
	return fmt.Sprintf("ContentPurpose(%d)", uint32(p))
}

// ParsePurpose converts a wire value into a ContentPurpose.
func ParsePurpose(v uint32) (ContentPurpose, error) {
	if int(v) >= len(purposeNames) {
		return 0, fmt.Errorf("unknown content purpose %d", v)
	}
	return ContentPurpose(v), nil
}

// PurposeFromName is the inverse of ContentPurpose.String.
func PurposeFromName(name string) (ContentPurpose, error) {
	for i, n := range purposeNames {
		if n == name {
			return ContentPurpose(i), nil
		}
	}
	return 0, fmt.Errorf("unknown content purpose %q", name)
}

// InputMethodEvent is sent by the input method. Implementations: Activate,
// Deactivate, SurroundingText and ContentType.
type InputMethodEvent interface {
	isInputMethodEvent()
}

// Activate means a text field gained focus.
type Activate struct{}

// Deactivate means the focused text field went away.
type Deactivate struct{}

// SurroundingText carries the text around the cursor. Cursor and Anchor are
// byte offsets into Text.
type SurroundingText struct {
	Text   string
	Cursor uint32
	Anchor uint32
}

// ContentType describes the focused field. Purpose is the raw wire value and
// may be out of range.
type ContentType struct {
	Hint    uint32
	Purpose uint32
}

func (Activate) isInputMethodEvent()        {}
func (Deactivate) isInputMethodEvent()      {}
func (SurroundingText) isInputMethodEvent() {}
func (ContentType) isInputMethodEvent()     {}

// InputMethodCommand is sent to the input method. Implementations:
// DeleteSurroundingText, CommitString and Commit.
type InputMethodCommand interface {
	isInputMethodCommand()
}

// DeleteSurroundingText removes bytes around the cursor.
type DeleteSurroundingText struct {
	BeforeLength uint32
	AfterLength  uint32
}

// CommitString inserts text at the cursor.
type CommitString struct {
	Text string
}

// Commit applies the pending input method state.
type Commit struct{}

func (DeleteSurroundingText) isInputMethodCommand() {}
func (CommitString) isInputMethodCommand()          {}
func (Commit) isInputMethodCommand()                {}

// KeyMotion is the state of a key event.
type KeyMotion uint32

const (
	Released KeyMotion = iota
	Pressed
)

func (m KeyMotion) String() string {
	if m == Pressed {
		return "pressed"
	}
	return "released"
}

// VirtualKeyboardCommand is sent to the virtual keyboard. Implementations:
// SetKeymap, Key and SetModifiers.
type VirtualKeyboardCommand interface {
	isVirtualKeyboardCommand()
}

// SetKeymap installs the keymap stored in File, Size bytes long. Layout and
// Bin identify which compiled keymap it is.
type SetKeymap struct {
	File   *os.File
	Size   uint32
	Layout string
	Bin    int
}

// Key sends a key event. Keycode is already offset to the evdev range.
type Key struct {
	Keycode uint32
	Motion  KeyMotion
}

// SetModifiers sets the modifier state.
type SetModifiers struct {
	Depressed uint32
	Latched   uint32
	Locked    uint32
}

func (SetKeymap) isVirtualKeyboardCommand()    {}
func (Key) isVirtualKeyboardCommand()          {}
func (SetModifiers) isVirtualKeyboardCommand() {}

// Anchor is a set of layer surface edges.
type Anchor uint32

const (
	AnchorTop Anchor = 1 << iota
	AnchorBottom
	AnchorLeft
	AnchorRight
)

func (a Anchor) String() string {
	var s string
	for _, e := range []struct {
		bit  Anchor
		name string
	}{{AnchorTop, "top"}, {AnchorBottom, "bottom"}, {AnchorLeft, "left"}, {AnchorRight, "right"}} {
		if a&e.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += e.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Layer is the stacking layer of a layer surface.
type Layer uint32

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("Layer(%d)", uint32(l))
	}
}

// WindowCommand is sent to the window host. Implementations: Resize and
// ReconfigureAnchor.
type WindowCommand interface {
	isWindowCommand()
}

// Resize sets the window size in layout units.
type Resize struct {
	Width  uint32
	Height uint32
}

// ReconfigureAnchor places the window.
type ReconfigureAnchor struct {
	Anchor        Anchor
	Layer         Layer
	ExclusiveZone int32
}

func (Resize) isWindowCommand()            {}
func (ReconfigureAnchor) isWindowCommand() {}
