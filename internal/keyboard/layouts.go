package keyboard

import (
	"fmt"
	"sort"

	"osk/internal/layout"
	"osk/internal/logging"
	"osk/internal/protocol"
)

// DefaultLayout is the name LoadLayouts gives the default layout.
const DefaultLayout = "default"

// LoadLayouts opens and builds every referenced layout. refs maps layout
// names to file paths or builtin references and must contain
// DefaultLayout. Any layout that fails to open or validate is an error and
// nothing is returned, so the keyboard never starts with a partial table.
// Build diagnostics are logged as warnings.
func LoadLayouts(refs map[string]string, purposes map[protocol.ContentPurpose]string, log *logging.Logger) (*Layouts, error) {
	if log == nil {
		log = logging.Default().WithComponent("layout")
	}
	if _, ok := refs[DefaultLayout]; !ok {
		return nil, fmt.Errorf("no %s layout configured", DefaultLayout)
	}

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &Layouts{
		Default:   DefaultLayout,
		ByName:    make(map[string]*layout.ParsedLayout, len(refs)),
		ByPurpose: make(map[protocol.ContentPurpose]string, len(purposes)),
	}
	for _, name := range names {
		ref := refs[name]
		l, err := layout.Open(ref)
		if err != nil {
			if name == DefaultLayout {
				return nil, fmt.Errorf("default layout: %w", err)
			}
			return nil, fmt.Errorf("%s layout: %w", name, err)
		}
		pl := l.Build()
		for _, d := range pl.Diagnostics {
			log.Warn("layout diagnostic", append([]any{"layout", name}, d.Attrs()...)...)
		}
		log.Debug("layout loaded", "layout", name, "ref", ref, "keymaps", len(pl.Keymaps))
		out.ByName[name] = pl
	}

	for p, name := range purposes {
		if _, ok := out.ByName[name]; !ok {
			return nil, fmt.Errorf("purpose %s names unknown layout %q", p, name)
		}
		out.ByPurpose[p] = name
	}
	return out, nil
}
