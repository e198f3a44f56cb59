package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockViewHelpers(t *testing.T) {
	shift := LockView{Lock: "upper", Unlock: "base", Latches: true, LooksLockedFrom: []string{"caps"}}

	assert.True(t, IsLocked(shift, "upper"))
	assert.False(t, IsLocked(shift, "base"))
	assert.True(t, HasLockedAppearanceFrom(shift, "caps"))
	assert.False(t, HasLockedAppearanceFrom(shift, "upper"))
	assert.True(t, IsActive(shift, "upper"))
	assert.True(t, IsActive(SetView{View: "numbers"}, "numbers"))
	assert.False(t, IsActive(Erase{}, "base"))
	assert.False(t, IsLocked(SetView{View: "upper"}, "upper"))
}

func TestSymbols(t *testing.T) {
	assert.Equal(t, []KeySym{"BackSpace"}, Symbols(Erase{}))
	assert.Equal(t, []KeySym{"a"}, Symbols(SubmitText("a", "a")))
	assert.Nil(t, Symbols(SetView{View: "base"}))
	assert.Nil(t, Symbols(ShowPreferences{}))
}

func TestModifierSet(t *testing.T) {
	var set ModifierSet
	set = set.Toggle(Control)
	set = set.Toggle(Mod4)
	assert.True(t, set.Has(Control))
	assert.Equal(t, ModControl|ModMod4, set.Mask())
	assert.Equal(t, []Modifier{Control, Mod4}, set.Sorted())

	next := set.Toggle(Control)
	assert.False(t, next.Has(Control))
	assert.True(t, set.Has(Control), "Toggle must not mutate the receiver")
	assert.Equal(t, ModMod4, next.Mask())
	assert.Equal(t, ModMod1, Alt.Mask())
}
