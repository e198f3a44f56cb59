package keymap

import (
	"strconv"
	"strings"
)

// Placeholder replaces keysym names that XKB would not recognize.
const Placeholder = "space"

//go:generate go run mkkeysyms.go -include /usr/include/X11 -o keysymdef.go

var keysymNames = func() map[string]uint32 {
	m := make(map[string]uint32, len(keysymTable))
	for _, e := range keysymTable {
		m[e.name] = e.sym
	}
	return m
}()

// keysymMax is the largest value a "0x" keysym may take.
const keysymMax = 0x1fffffff

// ValidKeysym reports whether name is a keysym name libxkbcommon resolves:
// a name from the keysym headers, "U" followed by the hex code point of a
// printable character, or a "0x" prefixed keysym value. Lookup is case
// sensitive.
func ValidKeysym(name string) bool {
	_, ok := LookupKeysym(name)
	return ok
}

// LookupKeysym returns the keysym value XKB assigns to name.
func LookupKeysym(name string) (uint32, bool) {
	if name == "" {
		return 0, false
	}
	if sym, ok := keysymNames[name]; ok {
		return sym, true
	}
	if rest, ok := strings.CutPrefix(name, "U"); ok {
		cp := parseHex(rest, 8)
		switch {
		case cp < 0x20, cp > 0x7e && cp < 0xa0, cp > 0x10ffff:
			return 0, false
		case cp < 0x100:
			return uint32(cp), true
		}
		return uint32(cp) | 0x01000000, true
	}
	if rest, ok := strings.CutPrefix(name, "0x"); ok {
		v := parseHex(rest, 8)
		if v < 0 || v > keysymMax {
			return 0, false
		}
		return uint32(v), true
	}
	// XF86_Foo is accepted as an alias of XF86Foo.
	if rest, ok := strings.CutPrefix(name, "XF86_"); ok {
		sym, ok := keysymNames["XF86"+rest]
		return sym, ok
	}
	return 0, false
}

// RuneKeysym returns the keysym name submitting r: the rune itself when XKB
// knows it by that name, its Unicode form otherwise.
func RuneKeysym(r rune) string {
	s := string(r)
	if ValidKeysym(s) {
		return s
	}
	switch r {
	case ' ':
		return "space"
	case '\n':
		return "Return"
	case '\t':
		return "Tab"
	}
	return "U" + strings.ToUpper(pad4(strconv.FormatInt(int64(r), 16)))
}

func pad4(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func parseHex(s string, maxDigits int) int64 {
	if s == "" || len(s) > maxDigits {
		return -1
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return -1
	}
	return int64(v)
}
