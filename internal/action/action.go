// Package action defines what a keyboard button does when it is activated.
package action

import "slices"

// KeySym is the name of an XKB keysym, e.g. "a", "BackSpace" or "U00E9".
type KeySym string

// Action is the resolved behavior of a button. The set of implementations is
// closed: SetView, LockView, ApplyModifier, Submit, Erase, ShowPreferences,
// Minimize and Maximize.
type Action interface {
	isAction()
}

// SetView switches to the named view.
type SetView struct {
	View string
}

// LockView switches to Lock, or back to Unlock when Lock is already shown.
type LockView struct {
	Lock   string
	Unlock string
	// Latches reports whether the first press only latches the view until
	// the next submitted key.
	Latches bool
	// LooksLockedFrom lists views in which the button should be drawn locked.
	LooksLockedFrom []string
}

// ApplyModifier toggles a modifier for subsequent key events.
type ApplyModifier struct {
	Modifier Modifier
}

// Submit emits text. When Text is nil only Keys are submitted.
type Submit struct {
	Text *string
	Keys []KeySym
}

// Erase removes the character before the cursor.
type Erase struct{}

// ShowPreferences opens the keyboard preferences.
type ShowPreferences struct{}

// Minimize collapses the keyboard to its small floating form.
type Minimize struct{}

// Maximize restores the full keyboard.
type Maximize struct{}

func (SetView) isAction()         {}
func (LockView) isAction()        {}
func (ApplyModifier) isAction()   {}
func (Submit) isAction()          {}
func (Erase) isAction()           {}
func (ShowPreferences) isAction() {}
func (Minimize) isAction()        {}
func (Maximize) isAction()        {}

// SubmitText returns a Submit carrying text and its keys.
func SubmitText(text string, keys ...KeySym) Submit {
	return Submit{Text: &text, Keys: keys}
}

// IsLocked reports whether a is a LockView whose lock view is viewName.
func IsLocked(a Action, viewName string) bool {
	lv, ok := a.(LockView)
	return ok && lv.Lock == viewName
}

// HasLockedAppearanceFrom reports whether a should look locked while
// lockedView is shown.
func HasLockedAppearanceFrom(a Action, lockedView string) bool {
	lv, ok := a.(LockView)
	return ok && slices.Contains(lv.LooksLockedFrom, lockedView)
}

// IsActive reports whether a targets viewName.
func IsActive(a Action, viewName string) bool {
	switch v := a.(type) {
	case SetView:
		return v.View == viewName
	case LockView:
		return v.Lock == viewName
	default:
		return false
	}
}

// Symbols returns the keysyms a submits when activated. Erase submits
// BackSpace; every other non-Submit action submits nothing.
func Symbols(a Action) []KeySym {
	switch v := a.(type) {
	case Submit:
		return v.Keys
	case Erase:
		return []KeySym{"BackSpace"}
	default:
		return nil
	}
}
