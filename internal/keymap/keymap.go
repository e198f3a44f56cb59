package keymap

import (
	"fmt"
	"sort"
	"strings"
)

// empty marks a keycode slot no keysym occupies.
const empty = ""

// GenerateKeymaps renders one XKB keymap per bin. The text only depends on
// codes, so compiling the same layout twice yields identical blobs.
func GenerateKeymaps(codes map[string]KeyCode) []string {
	bins := make([][]string, BinCount(codes))
	for i := range bins {
		slots := make([]string, CodesPerBin)
		for j := range slots {
			slots[j] = empty
		}
		bins[i] = slots
	}

	// Sorted so an invalid input mapping two names to one slot still renders
	// the same way every time.
	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		kc := codes[name]
		if kc.Code < MinCode || kc.Code > MaxCode || kc.Bin < 0 {
			continue
		}
		slot := int(kc.Code) - MinCode
		if bins[kc.Bin][slot] == empty {
			bins[kc.Bin][slot] = name
		}
	}

	out := make([]string, len(bins))
	for i, slots := range bins {
		out[i] = render(slots)
	}
	return out
}

func render(slots []string) string {
	var b strings.Builder
	b.WriteString("xkb_keymap {\n\n")

	b.WriteString("    xkb_keycodes \"osk\" {\n")
	b.WriteString("        minimum = 8;\n")
	b.WriteString("        maximum = 255;\n\n")
	for i, name := range slots {
		if name == empty {
			continue
		}
		code := MinCode + i
		fmt.Fprintf(&b, "        <I%d> = %d;\n", code, code)
	}
	// Xwayland refuses keymaps without at least one indicator.
	b.WriteString("        indicator 1 = \"Caps Lock\";\n")
	b.WriteString("    };\n\n")

	b.WriteString("    xkb_symbols \"osk\" {\n\n")
	for i, name := range slots {
		if name == empty {
			continue
		}
		fmt.Fprintf(&b, "        key <I%d> { [ %s ] };\n", MinCode+i, name)
	}
	b.WriteString("    };\n\n")

	b.WriteString(typesSection)
	b.WriteString(compatSection)
	b.WriteString("};\n")
	return b.String()
}

const typesSection = `    xkb_types "osk" {
        virtual_modifiers OSK;

        type "ONE_LEVEL" {
            modifiers= none;
            level_name[Level1]= "Any";
        };

        type "TWO_LEVEL" {
            level_name[Level1]= "Base";
        };

        type "ALPHABETIC" {
            level_name[Level1]= "Base";
        };

        type "KEYPAD" {
            level_name[Level1]= "Base";
        };

        type "SHIFT+ALT" {
            level_name[Level1]= "Base";
        };
    };

`

const compatSection = `    xkb_compatibility "osk" {
        // Needed for modifiers to work at all.
        interpret Any+AnyOf(all) {
            action= SetMods(modifiers=modMapMods,clearLocks);
        };
    };
`
