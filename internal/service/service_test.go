package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/keyboard"
	"osk/internal/logging"
	"osk/internal/protocol"
)

type fakeKeyboard struct {
	mu     sync.Mutex
	events []keyboard.Event
	state  keyboard.State
	err    error
}

func (f *fakeKeyboard) Post(_ context.Context, ev keyboard.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeKeyboard) State() *keyboard.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state
	return &s
}

type emitted struct {
	name   string
	values []any
}

type fakeEmitter struct {
	mu  sync.Mutex
	out []emitted
}

func (f *fakeEmitter) Emit(_ dbus.ObjectPath, name string, values ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, emitted{name: name, values: values})
	return nil
}

func (f *fakeEmitter) signals() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.out...)
}

func TestOskMethodsPostEvents(t *testing.T) {
	kb := &fakeKeyboard{}
	o := &Osk{kb: kb, log: logging.Discard()}

	assert.Nil(t, o.Show())
	assert.Nil(t, o.Hide())
	assert.Nil(t, o.Toggle())
	assert.Equal(t, []keyboard.Event{keyboard.Maximize{}, keyboard.Minimize{}, keyboard.Toggle{}}, kb.events)
}

func TestOskPostFailureIsDBusError(t *testing.T) {
	kb := &fakeKeyboard{err: keyboard.ErrStopped}
	o := &Osk{kb: kb, log: logging.Discard()}

	derr := o.Show()
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)
}

func TestOskStatus(t *testing.T) {
	kb := &fakeKeyboard{state: keyboard.State{Visible: true, Maximized: true, CurrentView: "numbers", Layout: "default"}}
	o := &Osk{kb: kb, log: logging.Discard()}

	mode, view, layout, derr := o.Status()
	assert.Nil(t, derr)
	assert.Equal(t, "active-maximized", mode)
	assert.Equal(t, "numbers", view)
	assert.Equal(t, "default", layout)
}

func TestOskSuggestions(t *testing.T) {
	kb := &fakeKeyboard{state: keyboard.State{Suggestions: []string{"hello", "help"}, SuggestedFor: "hel"}}
	o := &Osk{kb: kb, log: logging.Discard()}

	words, prefix, derr := o.Suggestions()
	assert.Nil(t, derr)
	assert.Equal(t, []string{"hello", "help"}, words)
	assert.Equal(t, "hel", prefix)

	assert.Nil(t, o.PickSuggestion(1))
	assert.Equal(t, []keyboard.Event{keyboard.SuggestionPressed{Text: "help"}}, kb.events)

	derr = o.PickSuggestion(2)
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)
}

func TestOskSuggestionsEmpty(t *testing.T) {
	o := &Osk{kb: &fakeKeyboard{}, log: logging.Discard()}
	words, prefix, derr := o.Suggestions()
	assert.Nil(t, derr)
	assert.NotNil(t, words)
	assert.Empty(t, words)
	assert.Empty(t, prefix)
}

func TestInputMethodBridge(t *testing.T) {
	kb := &fakeKeyboard{}
	im := &InputMethod{kb: kb, log: logging.Discard()}

	assert.Nil(t, im.Activate())
	assert.Nil(t, im.ContentType(0, uint32(protocol.PurposeEmail)))
	assert.Nil(t, im.SurroundingText("hi there", 8, 8))
	assert.Nil(t, im.Deactivate())

	assert.Equal(t, []keyboard.Event{
		keyboard.InputMethod{Event: protocol.Activate{}},
		keyboard.InputMethod{Event: protocol.ContentType{Purpose: uint32(protocol.PurposeEmail)}},
		keyboard.InputMethod{Event: protocol.SurroundingText{Text: "hi there", Cursor: 8, Anchor: 8}},
		keyboard.InputMethod{Event: protocol.Deactivate{}},
	}, kb.events)
}

func TestRunForwardsPeerCommands(t *testing.T) {
	s := New(Config{ObjectPath: "/org/mechanics/Osk", Keyboard: &fakeKeyboard{}, Logger: logging.Discard()})
	em := &fakeEmitter{}
	s.emit = em

	f, err := os.Create(filepath.Join(t.TempDir(), "keymap"))
	require.NoError(t, err)
	defer f.Close()

	im := keyboard.NewLink[protocol.InputMethodCommand](8)
	vk := keyboard.NewLink[protocol.VirtualKeyboardCommand](8)
	im.Send(protocol.DeleteSurroundingText{BeforeLength: 3})
	im.Send(protocol.CommitString{Text: "hello"})
	im.Send(protocol.Commit{})
	vk.Send(protocol.SetKeymap{File: f, Size: 42, Layout: "default", Bin: 1})
	vk.Send(protocol.Key{Keycode: 12, Motion: protocol.Pressed})
	vk.Send(protocol.SetModifiers{Depressed: 4})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, im, vk) }()

	require.Eventually(t, func() bool { return len(em.signals()) == 6 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	byName := make(map[string][]any)
	var imOrder []string
	for _, e := range em.signals() {
		byName[e.name] = e.values
		switch e.name {
		case PeerInterface + "." + SignalDeleteSurroundingText, PeerInterface + "." + SignalCommitString, PeerInterface + "." + SignalCommit:
			imOrder = append(imOrder, e.name)
		}
	}
	assert.Equal(t, []string{
		PeerInterface + ".DeleteSurroundingText",
		PeerInterface + ".CommitString",
		PeerInterface + ".Commit",
	}, imOrder)
	assert.Equal(t, []any{uint32(3), uint32(0)}, byName[PeerInterface+".DeleteSurroundingText"])
	assert.Equal(t, []any{"hello"}, byName[PeerInterface+".CommitString"])
	assert.Equal(t, []any{dbus.UnixFD(f.Fd()), uint32(42), "default", int32(1)}, byName[PeerInterface+".Keymap"])
	assert.Equal(t, []any{uint32(12), uint32(1)}, byName[PeerInterface+".Key"])
	assert.Equal(t, []any{uint32(4), uint32(0), uint32(0)}, byName[PeerInterface+".Modifiers"])

	// Links are closed once the service stops.
	assert.False(t, vk.Send(protocol.Key{}))
}

func TestRunPeersForwardIndependently(t *testing.T) {
	s := New(Config{ObjectPath: "/org/mechanics/Osk", Keyboard: &fakeKeyboard{}, Logger: logging.Discard()})
	em := &fakeEmitter{}
	s.emit = em

	im := keyboard.NewLink[protocol.InputMethodCommand](8)
	vk := keyboard.NewLink[protocol.VirtualKeyboardCommand](8)
	vk.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, im, vk) }()

	// The virtual keyboard peer is gone; input method commands still flow.
	require.True(t, im.Send(protocol.CommitString{Text: "hi"}))
	require.Eventually(t, func() bool { return len(em.signals()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, PeerInterface+"."+SignalCommitString, em.signals()[0].name)

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
	assert.False(t, im.Send(protocol.Commit{}))
}

func TestWatchKeepsLatestVisibility(t *testing.T) {
	s := New(Config{Keyboard: &fakeKeyboard{}, Logger: logging.Discard()})

	s.Watch(&keyboard.State{Visible: true, Maximized: true})
	s.Watch(&keyboard.State{Visible: true, Maximized: false})

	select {
	case v := <-s.visible:
		assert.False(t, v)
	default:
		t.Fatal("no visibility recorded")
	}
	select {
	case <-s.visible:
		t.Fatal("stale visibility kept")
	default:
	}
}

func TestPeerSignalsAreIntrospected(t *testing.T) {
	names := make([]string, 0, len(peerSignals))
	for _, sig := range peerSignals {
		names = append(names, sig.Name)
	}
	assert.ElementsMatch(t, []string{
		SignalDeleteSurroundingText, SignalCommitString, SignalCommit,
		SignalKeymap, SignalKey, SignalModifiers,
	}, names)
}

func TestRequestPreferencesEmitsOnServiceInterface(t *testing.T) {
	em := &fakeEmitter{}
	s := New(Config{Keyboard: &fakeKeyboard{}, ObjectPath: "/org/mechanics/Osk", Logger: logging.Discard()})
	s.emit = em

	s.RequestPreferences()

	sigs := em.signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, Interface+"."+SignalPreferencesRequested, sigs[0].name)
	assert.Empty(t, sigs[0].values)
}
