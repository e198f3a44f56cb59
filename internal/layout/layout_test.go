package layout

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/action"
	"osk/internal/keymap"
)

func mustLoad(t *testing.T, doc string) *Layout {
	t.Helper()
	l, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	return l
}

func findButton(t *testing.T, p *ParsedLayout, view, name string) *KeyButton {
	t.Helper()
	v, ok := p.Views[view]
	require.True(t, ok, "view %s", view)
	for _, row := range v.Rows {
		for _, b := range row.Buttons {
			if b.Name == name {
				return b
			}
		}
	}
	t.Fatalf("button %s not in view %s", name, view)
	return nil
}

const baseShift = `
views:
  base:
    - a shift
  shift:
    - A shift
buttons:
  shift:
    action:
      set_view: shift
outlines:
  default: { width: 10, height: 20 }
`

func TestBuildBaseShiftScenario(t *testing.T) {
	p := mustLoad(t, baseShift).Build()

	a := findButton(t, p, "base", "a")
	assert.Equal(t, action.SubmitText("a", "a"), a.Action)
	assert.Equal(t, Label{Text: "a"}, a.Label)
	assert.Equal(t, Size{Width: 10, Height: 20}, a.Size)
	assert.Equal(t, DefaultOutline, a.OutlineName)
	require.Len(t, a.Keycodes, 1)
	assert.Equal(t, p.Keycodes["a"], a.Keycodes[0])

	shift := findButton(t, p, "base", "shift")
	assert.Equal(t, action.SetView{View: "shift"}, shift.Action)
	assert.Empty(t, shift.Keycodes)
	assert.Empty(t, p.Diagnostics)
	assert.Len(t, p.Keymaps, 1)
}

func TestBuildDeterministic(t *testing.T) {
	first := mustLoad(t, baseShift).Build()
	second := mustLoad(t, baseShift).Build()

	assert.Equal(t, first.Keycodes, second.Keycodes)
	assert.Equal(t, first.Keymaps, second.Keymaps)
	assert.Equal(t, first.Views, second.Views)
}

func TestBuildMissingViewFallsBack(t *testing.T) {
	p := mustLoad(t, `
views:
  base:
    - go lock
buttons:
  go:
    action: { set_view: nowhere }
  lock:
    action:
      locking: { lock_view: caps, unlock_view: base, pops: false }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	assert.Equal(t, action.SetView{View: FallbackView}, findButton(t, p, "base", "go").Action)
	lock := findButton(t, p, "base", "lock").Action.(action.LockView)
	assert.Equal(t, FallbackView, lock.Lock)
	assert.Equal(t, "base", lock.Unlock)
	assert.False(t, lock.Latches)

	require.Len(t, p.Diagnostics, 2)
	for _, d := range p.Diagnostics {
		assert.Equal(t, DiagMissingView, d.Kind)
	}
}

func TestBuildLockingPopsByDefault(t *testing.T) {
	p := mustLoad(t, `
views:
  base: [shift]
  upper: [shift]
buttons:
  shift:
    action:
      locking: { lock_view: upper, unlock_view: base, looks_locked_from: [upper] }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	lock := findButton(t, p, "upper", "shift").Action.(action.LockView)
	assert.True(t, lock.Latches)
	assert.Equal(t, []string{"upper"}, lock.LooksLockedFrom)
}

func TestBuildLabelPriority(t *testing.T) {
	p := mustLoad(t, `
views:
  base: ["l i t n"]
buttons:
  l: { label: Label, icon: an-icon, text: x }
  i: { icon: an-icon, text: x }
  t: { text: x }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	assert.Equal(t, Label{Text: "Label"}, findButton(t, p, "base", "l").Label)
	assert.Equal(t, Label{Icon: "an-icon"}, findButton(t, p, "base", "i").Label)
	assert.Equal(t, Label{Text: "x"}, findButton(t, p, "base", "t").Label)
	assert.Equal(t, Label{Text: "n"}, findButton(t, p, "base", "n").Label)
}

func TestBuildOutlines(t *testing.T) {
	p := mustLoad(t, `
views:
  base: ["wide odd"]
buttons:
  wide: { outline: wide }
  odd: { outline: missing }
outlines:
  wide: { width: 3, height: 1 }
`).Build()

	assert.Equal(t, Size{Width: 3, Height: 1}, findButton(t, p, "base", "wide").Size)

	odd := findButton(t, p, "base", "odd")
	assert.Equal(t, DefaultOutline, odd.OutlineName)
	assert.Equal(t, Size{Width: 1, Height: 1}, odd.Size, "no default outline declared")
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, DiagMissingOutline, p.Diagnostics[0].Kind)
	assert.Equal(t, "missing", p.Diagnostics[0].Outline)
}

func TestBuildKeysymsAndText(t *testing.T) {
	p := mustLoad(t, `
views:
  base: ["ret bad e dot bs"]
buttons:
  ret: { keysym: Return }
  bad: { keysym: NotAKeysym }
  e: { text: "é" }
  dot: { text: "." }
  bs: { action: erase }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	assert.Equal(t, action.Submit{Keys: []action.KeySym{"Return"}}, findButton(t, p, "base", "ret").Action)
	assert.Equal(t, action.Submit{Keys: []action.KeySym{"space"}}, findButton(t, p, "base", "bad").Action)
	assert.Equal(t, action.SubmitText("é", "U00E9"), findButton(t, p, "base", "e").Action)
	assert.Equal(t, action.SubmitText(".", "U002E"), findButton(t, p, "base", "dot").Action)

	bs := findButton(t, p, "base", "bs")
	assert.Equal(t, action.Erase{}, bs.Action)
	require.Len(t, bs.Keycodes, 1)
	assert.Equal(t, p.Keycodes["BackSpace"], bs.Keycodes[0])

	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, DiagInvalidKeysym, p.Diagnostics[0].Kind)
	assert.NotContains(t, p.Keycodes, "NotAKeysym")
}

func TestBuildConflictSubmitsEmptyText(t *testing.T) {
	p := mustLoad(t, `
views:
  base: ["x y"]
buttons:
  x: { action: erase, text: "x" }
  y: { keysym: Tab, modifier: Control }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	for _, name := range []string{"x", "y"} {
		a, ok := findButton(t, p, "base", name).Action.(action.Submit)
		require.True(t, ok, name)
		require.NotNil(t, a.Text, name)
		assert.Empty(t, *a.Text, name)
		assert.Empty(t, a.Keys, name)
	}
	require.Len(t, p.Diagnostics, 2)
	for _, d := range p.Diagnostics {
		assert.Equal(t, DiagConflict, d.Kind)
		assert.Contains(t, d.Detail, "empty text")
	}
}

func TestBuildModifiers(t *testing.T) {
	p := mustLoad(t, `
views:
  base: ["ctrl alt mod1 super shift"]
buttons:
  ctrl: { modifier: Control }
  alt: { modifier: Alt }
  mod1: { modifier: Mod1 }
  super: { modifier: Mod4 }
  shift: { modifier: Shift }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	assert.Equal(t, action.ApplyModifier{Modifier: action.Control}, findButton(t, p, "base", "ctrl").Action)
	assert.Equal(t, action.ApplyModifier{Modifier: action.Alt}, findButton(t, p, "base", "alt").Action)
	assert.Equal(t, action.ApplyModifier{Modifier: action.Alt}, findButton(t, p, "base", "mod1").Action)
	assert.Equal(t, action.ApplyModifier{Modifier: action.Mod4}, findButton(t, p, "base", "super").Action)
	assert.Equal(t, action.Submit{}, findButton(t, p, "base", "shift").Action)
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, DiagUnsupportedModifier, p.Diagnostics[0].Kind)
}

func TestBuildSymbolsFromAllViews(t *testing.T) {
	p := mustLoad(t, `
views:
  base: [a]
  other: [b]
outlines:
  default: { width: 1, height: 1 }
`).Build()

	assert.Equal(t, keymap.KeyCode{Code: 9}, p.Keycodes["a"])
	assert.Equal(t, keymap.KeyCode{Code: 10}, p.Keycodes["b"])
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown top-level key",
			doc:  "views: {base: [a]}\noutlines: {}\ncolors: {}\n",
			want: ErrSchema,
		},
		{
			name: "unknown button key",
			doc:  "views: {base: [a]}\noutlines: {}\nbuttons: {a: {colour: red}}\n",
			want: ErrSchema,
		},
		{
			name: "unknown action",
			doc:  "views: {base: [a]}\noutlines: {}\nbuttons: {a: {action: explode}}\n",
			want: ErrSchema,
		},
		{
			name: "missing outlines",
			doc:  "views: {base: [a]}\n",
			want: ErrSchema,
		},
		{
			name: "outline without height",
			doc:  "views: {base: [a]}\noutlines: {default: {width: 1}}\n",
			want: ErrSchema,
		},
		{
			name: "malformed yaml",
			doc:  "views: [base\n",
			want: ErrParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoadNumericButtonIDs(t *testing.T) {
	p := mustLoad(t, `
views:
  base:
    - 1 2 3
buttons:
  1: { label: one }
outlines:
  default: { width: 1, height: 1 }
`).Build()

	assert.Equal(t, Label{Text: "one"}, findButton(t, p, "base", "1").Label)
	assert.Equal(t, action.SubmitText("2", "2"), findButton(t, p, "base", "2").Action)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseShift), 0o600))

	l, err := Open(path)
	require.NoError(t, err)
	assert.Contains(t, l.Views, "shift")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuiltinLayout(t *testing.T) {
	assert.Contains(t, BuiltinNames(), "us")

	l, err := Open(BuiltinPrefix + "us")
	require.NoError(t, err)
	p := l.Build()

	assert.Empty(t, p.Diagnostics)
	for _, name := range []string{"base", "upper", "numbers", "symbols", "minimize"} {
		assert.True(t, p.HasView(name), name)
	}
	_, ok := p.Keycode("BackSpace")
	assert.True(t, ok)
	assert.Len(t, p.Keymaps, 1)
}
