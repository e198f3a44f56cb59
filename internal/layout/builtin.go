package layout

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// BuiltinPrefix selects an embedded layout in place of a file path.
const BuiltinPrefix = "builtin:"

//go:embed layouts/*.yaml
var builtinFS embed.FS

// Builtin loads the embedded layout called name.
func Builtin(name string) (*Layout, error) {
	f, err := builtinFS.Open(path.Join("layouts", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("builtin layout %q: %w", name, err)
	}
	defer f.Close()

	l, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("builtin layout %q: %w", name, err)
	}
	return l, nil
}

// BuiltinNames lists the embedded layouts.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "layouts")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names
}

// Open loads a layout from a file path, or an embedded layout when ref has
// the BuiltinPrefix.
func Open(ref string) (*Layout, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		return Builtin(name)
	}
	return LoadFile(ref)
}
