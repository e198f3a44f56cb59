package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/service"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFormatSignal(t *testing.T) {
	sig := &dbus.Signal{
		Name: service.PeerInterface + "." + service.SignalKey,
		Body: []any{uint32(12), uint32(1)},
	}
	assert.Equal(t, "Key 12 1", formatSignal(sig))

	sig = &dbus.Signal{Name: service.Interface + "." + service.SignalPreferencesRequested}
	assert.Equal(t, "PreferencesRequested", formatSignal(sig))

	sig = &dbus.Signal{Name: "org.freedesktop.DBus.Properties.PropertiesChanged"}
	assert.Equal(t, "org.freedesktop.DBus.Properties.PropertiesChanged", formatSignal(sig))
}

func TestLayoutsCommand(t *testing.T) {
	out, err := execute(t, newLayoutsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "builtin:us")
}

func TestCompileWritesKeymaps(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, newCompileCmd(), "builtin:us", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Keymaps:  1")

	data, err := os.ReadFile(filepath.Join(dir, "0.xkb"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "xkb_keymap")
}

func TestCompileJSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	out, err := execute(t, newCompileCmd(), "builtin:us")
	require.NoError(t, err)

	var r compileReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 1, r.Keymaps)
	assert.Contains(t, r.Views, "base")
	assert.Empty(t, r.Diagnostics)
}

func TestValidateLayouts(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("views:\n  base: []\nunknown: 1\n"), 0o644))

	_, err := execute(t, newValidateCmd(), "builtin:us")
	assert.NoError(t, err)

	_, err = execute(t, newValidateCmd(), "builtin:us", bad)
	assert.ErrorContains(t, err, "1 of 2 layouts invalid")
}
