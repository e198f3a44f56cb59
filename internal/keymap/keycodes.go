// Package keymap assigns keycodes to keysyms and renders the XKB keymaps
// handed to the virtual keyboard.
package keymap

import (
	"fmt"
	"slices"
	"sort"
)

const (
	// MinCode is the first keycode a keymap may use.
	MinCode = 9
	// MaxCode is the last keycode a keymap may use.
	MaxCode = 254
	// CodesPerBin is the number of keycodes available in one keymap.
	CodesPerBin = MaxCode - MinCode + 1
	// ProtocolOffset is subtracted from a keycode before it is sent to the
	// virtual keyboard, which speaks evdev codes.
	ProtocolOffset = 8
)

// KeyCode locates a keysym: the keycode within the keymap of bin Bin.
type KeyCode struct {
	Code uint32
	Bin  int
}

// Wire returns the code as sent to the virtual keyboard.
func (k KeyCode) Wire() uint32 {
	return k.Code - ProtocolOffset
}

func (k KeyCode) String() string {
	return fmt.Sprintf("<I%d>@%d", k.Code, k.Bin)
}

// GenerateKeycodes assigns a KeyCode to every distinct name. Names are sorted
// first so the assignment only depends on the set of names. Codes cycle
// through MinCode..MaxCode; each wrap starts a new bin.
func GenerateKeycodes(names []string) map[string]KeyCode {
	unique := slices.Clone(names)
	sort.Strings(unique)
	unique = slices.Compact(unique)

	codes := make(map[string]KeyCode, len(unique))
	for i, name := range unique {
		codes[name] = KeyCode{
			Code: uint32(MinCode + i%CodesPerBin),
			Bin:  i / CodesPerBin,
		}
	}
	return codes
}

// BinCount returns the number of keymaps needed for codes.
func BinCount(codes map[string]KeyCode) int {
	n := 0
	for _, kc := range codes {
		if kc.Bin+1 > n {
			n = kc.Bin + 1
		}
	}
	return n
}
