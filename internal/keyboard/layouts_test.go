package keyboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/logging"
	"osk/internal/protocol"
)

func TestLoadLayouts(t *testing.T) {
	refs := map[string]string{
		DefaultLayout: "builtin:us",
		"terminal":    "builtin:us",
	}
	purposes := map[protocol.ContentPurpose]string{
		protocol.PurposeTerminal: "terminal",
	}

	ls, err := LoadLayouts(refs, purposes, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, DefaultLayout, ls.Default)
	assert.Contains(t, ls.ByName, DefaultLayout)
	assert.Contains(t, ls.ByName, "terminal")

	assert.Equal(t, "terminal", ls.ByPurpose[protocol.PurposeTerminal])
	assert.Equal(t, "terminal", ls.For(protocol.PurposeTerminal))
	assert.Equal(t, DefaultLayout, ls.For(protocol.PurposeEmail))
}

func TestLoadLayoutsPurposeLayoutErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "terminal.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("views: {base: [a]}\noutlines: {default: {width: 1, height: 1}}\nbogus: 1\n"), 0o644))

	tests := []struct {
		name string
		ref  string
	}{
		{"schema error", bad},
		{"missing file", filepath.Join(dir, "missing.yaml")},
		{"unknown builtin", "builtin:nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := map[string]string{
				DefaultLayout: "builtin:us",
				"terminal":    tt.ref,
			}
			purposes := map[protocol.ContentPurpose]string{protocol.PurposeTerminal: "terminal"}

			ls, err := LoadLayouts(refs, purposes, logging.Discard())
			assert.Nil(t, ls)
			assert.ErrorContains(t, err, "terminal layout")
		})
	}
}

func TestLoadLayoutsUnknownPurposeLayout(t *testing.T) {
	refs := map[string]string{DefaultLayout: "builtin:us"}
	purposes := map[protocol.ContentPurpose]string{protocol.PurposeEmail: "email"}

	_, err := LoadLayouts(refs, purposes, logging.Discard())
	assert.ErrorContains(t, err, "unknown layout")
}

func TestLoadLayoutsDefaultRequired(t *testing.T) {
	_, err := LoadLayouts(map[string]string{"terminal": "builtin:us"}, nil, logging.Discard())
	assert.Error(t, err)

	_, err = LoadLayouts(map[string]string{DefaultLayout: "builtin:nope"}, nil, logging.Discard())
	assert.ErrorContains(t, err, "default layout")
}
