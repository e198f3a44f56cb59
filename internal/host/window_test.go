package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/keyboard"
	"osk/internal/layout"
	"osk/internal/logging"
)

type fakeKeyboard struct {
	err    error
	posted []keyboard.Event
}

func (f *fakeKeyboard) TryPost(ev keyboard.Event) error {
	if f.err != nil {
		return f.err
	}
	f.posted = append(f.posted, ev)
	return nil
}

func (f *fakeKeyboard) State() *keyboard.State { return &keyboard.State{} }
func (f *fakeKeyboard) Layout() *layout.ParsedLayout { return nil }

func TestReleasePostsButton(t *testing.T) {
	kb := &fakeKeyboard{}
	h := New(Config{Keyboard: kb, Logger: logging.Discard()})
	b := &layout.KeyButton{Name: "q"}

	h.release(b)
	require.Len(t, kb.posted, 1)
	assert.Equal(t, keyboard.ButtonReleased{Button: b}, kb.posted[0])
}

func TestReleaseDropsWhenQueueFull(t *testing.T) {
	kb := &fakeKeyboard{err: keyboard.ErrQueueFull}
	h := New(Config{Keyboard: kb, Logger: logging.Discard()})

	h.release(&layout.KeyButton{Name: "q"})
	assert.Empty(t, kb.posted)
}
