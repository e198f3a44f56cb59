package action

import (
	"fmt"
	"sort"
)

// Modifier is a modifier a button can hold. Only modifiers that do not
// interfere with keymap levels are supported.
type Modifier int

const (
	Control Modifier = iota
	Alt
	Mod4
)

func (m Modifier) String() string {
	switch m {
	case Control:
		return "Control"
	case Alt:
		return "Alt"
	case Mod4:
		return "Mod4"
	default:
		return fmt.Sprintf("Modifier(%d)", int(m))
	}
}

// Modifiers is the virtual_keyboard modifier mask, laid out as in the XKB
// protocol keyboard state.
type Modifiers uint32

const (
	ModShift   Modifiers = 0x1
	ModLock    Modifiers = 0x2
	ModControl Modifiers = 0x4
	ModMod1    Modifiers = 0x8 // Alt
	ModMod2    Modifiers = 0x10
	ModMod3    Modifiers = 0x20
	ModMod4    Modifiers = 0x40 // Meta
	ModMod5    Modifiers = 0x80 // AltGr
)

// Mask returns the protocol bit for m.
func (m Modifier) Mask() Modifiers {
	switch m {
	case Control:
		return ModControl
	case Alt:
		return ModMod1
	case Mod4:
		return ModMod4
	default:
		return 0
	}
}

// ModifierSet is a set of active modifiers.
type ModifierSet map[Modifier]struct{}

// Toggle adds m when absent and removes it when present. It returns the new set
// and leaves s untouched.
func (s ModifierSet) Toggle(m Modifier) ModifierSet {
	out := make(ModifierSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	if _, ok := out[m]; ok {
		delete(out, m)
	} else {
		out[m] = struct{}{}
	}
	return out
}

// Has reports whether m is active.
func (s ModifierSet) Has(m Modifier) bool {
	_, ok := s[m]
	return ok
}

// Mask folds the set into a protocol modifier mask.
func (s ModifierSet) Mask() Modifiers {
	var mask Modifiers
	for m := range s {
		mask |= m.Mask()
	}
	return mask
}

// Sorted returns the modifiers in declaration order.
func (s ModifierSet) Sorted() []Modifier {
	out := make([]Modifier, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
