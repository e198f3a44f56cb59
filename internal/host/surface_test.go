package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/keyboard"
	"osk/internal/layout"
	"osk/internal/proximity"
)

func usLayout(t *testing.T) *layout.ParsedLayout {
	t.Helper()
	l, err := layout.Builtin("us")
	require.NoError(t, err)
	return l.Build()
}

func keyNamed(t *testing.T, keys []Key, name string) Key {
	t.Helper()
	for _, k := range keys {
		if k.Button.Name == name {
			return k
		}
	}
	t.Fatalf("no key %s", name)
	return Key{}
}

func TestSurfacePressReleaseInPixels(t *testing.T) {
	s := NewSurface()
	s.Sync(usLayout(t), &keyboard.State{CurrentView: "base"}, 0)
	s.SetUnit(2)

	q := keyNamed(t, s.Keys(), "q")
	c := q.Rect.Center()

	b := s.Press(float32(c.X*2), float32(c.Y*2))
	require.NotNil(t, b)
	assert.Equal(t, "q", b.Name)
	assert.Equal(t, KeyPressed, keyNamed(t, s.Keys(), "q").State)

	assert.Equal(t, "q", s.Release().Name)
	assert.Nil(t, s.Release())
}

func TestSurfaceCancelDropsTouch(t *testing.T) {
	s := NewSurface()
	s.Sync(usLayout(t), &keyboard.State{CurrentView: "base"}, 0)

	c := keyNamed(t, s.Keys(), "a").Rect.Center()
	require.NotNil(t, s.Press(float32(c.X), float32(c.Y)))
	s.Cancel()
	assert.Nil(t, s.Release())
}

func TestSurfaceEmpty(t *testing.T) {
	s := NewSurface()
	assert.Nil(t, s.Press(1, 1))
	assert.Nil(t, s.Release())
	assert.Nil(t, s.Keys())
	w, h := s.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestSurfaceSize(t *testing.T) {
	pl := usLayout(t)
	s := NewSurface()
	s.Sync(pl, &keyboard.State{CurrentView: "base"}, 0)
	s.SetUnit(1.5)

	want := proximity.ViewSize(pl.Views["base"], pl.Margins)
	w, h := s.Size()
	assert.InDelta(t, want.Width*1.5, w, 0.001)
	assert.InDelta(t, want.Height*1.5, h, 0.001)
}

func TestSurfaceHitAreasFollowProbabilities(t *testing.T) {
	s := NewSurface()
	st := &keyboard.State{CurrentView: "base", Probabilities: proximity.Probabilities{"l": 1}}
	s.Sync(usLayout(t), st, 10)

	l := keyNamed(t, s.Keys(), "l")
	assert.Less(t, l.Hit.TL.X, l.Rect.TL.X, "l grows toward k")
	k := keyNamed(t, s.Keys(), "k")
	assert.Equal(t, k.Rect, k.Hit)
}

func TestSurfaceKeyStates(t *testing.T) {
	pl := usLayout(t)
	s := NewSurface()

	s.Sync(pl, &keyboard.State{CurrentView: "upper"}, 0)
	assert.Equal(t, KeyLocked, keyNamed(t, s.Keys(), "Shift_L").State)

	s.Sync(pl, &keyboard.State{CurrentView: "numbers"}, 0)
	assert.Equal(t, KeyIdle, keyNamed(t, s.Keys(), "show_symbols").State)
	assert.Equal(t, "ABC", keyNamed(t, s.Keys(), "show_letters").Text)
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, "a", Glyph(layout.Label{Text: "a"}))
	assert.Equal(t, "⇧", Glyph(layout.Label{Icon: "key-shift"}))
	assert.Equal(t, "custom-icon", Glyph(layout.Label{Icon: "custom-icon"}))
}
