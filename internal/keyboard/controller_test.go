package keyboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/action"
	"osk/internal/keymap"
	"osk/internal/layout"
	"osk/internal/logging"
	"osk/internal/predict"
	"osk/internal/protocol"
)

type harness struct {
	c   *Controller
	im  *Link[protocol.InputMethodCommand]
	vk  *Link[protocol.VirtualKeyboardCommand]
	win *Link[protocol.WindowCommand]
}

func builtinLayout(t *testing.T, name string) *layout.ParsedLayout {
	t.Helper()
	l, err := layout.Builtin(name)
	require.NoError(t, err)
	return l.Build()
}

func defaultLayouts(t *testing.T) *Layouts {
	return &Layouts{
		Default: "us",
		ByName:  map[string]*layout.ParsedLayout{"us": builtinLayout(t, "us")},
	}
}

func start(t *testing.T, layouts *Layouts, pred predict.Predictor, linkSize int) *harness {
	t.Helper()
	h := &harness{
		im:  NewLink[protocol.InputMethodCommand](linkSize),
		vk:  NewLink[protocol.VirtualKeyboardCommand](linkSize),
		win: NewLink[protocol.WindowCommand](linkSize),
	}
	c, err := New(Config{
		Layouts:         layouts,
		Predictor:       pred,
		Logger:          logging.Discard(),
		InputMethod:     h.im,
		VirtualKeyboard: h.vk,
		Window:          h.win,
	})
	require.NoError(t, err)
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errc:
		case <-time.After(5 * time.Second):
			t.Error("controller did not stop")
		}
	})
	return h
}

func (h *harness) post(t *testing.T, evs ...Event) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ev := range evs {
		require.NoError(t, h.c.Post(ctx, ev))
	}
	require.NoError(t, h.c.Flush(ctx))
}

func drain[T any](l *Link[T]) []T {
	var out []T
	for {
		select {
		case v := <-l.C():
			out = append(out, v)
		default:
			return out
		}
	}
}

func lastResize(t *testing.T, cmds []protocol.WindowCommand) protocol.Resize {
	t.Helper()
	for i := len(cmds) - 1; i >= 0; i-- {
		if r, ok := cmds[i].(protocol.Resize); ok {
			return r
		}
	}
	t.Fatal("no resize sent")
	return protocol.Resize{}
}

func lastPlacement(t *testing.T, cmds []protocol.WindowCommand) protocol.ReconfigureAnchor {
	t.Helper()
	for i := len(cmds) - 1; i >= 0; i-- {
		if r, ok := cmds[i].(protocol.ReconfigureAnchor); ok {
			return r
		}
	}
	t.Fatal("no placement sent")
	return protocol.ReconfigureAnchor{}
}

func keyEvents(cmds []protocol.VirtualKeyboardCommand) []protocol.Key {
	var out []protocol.Key
	for _, c := range cmds {
		if k, ok := c.(protocol.Key); ok {
			out = append(out, k)
		}
	}
	return out
}

func findButton(t *testing.T, p *layout.ParsedLayout, view, name string) *layout.KeyButton {
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

func activate(purpose protocol.ContentPurpose) []Event {
	return []Event{
		InputMethod{Event: protocol.Activate{}},
		InputMethod{Event: protocol.ContentType{Purpose: uint32(purpose)}},
	}
}

func TestNewRequiresDefaultLayout(t *testing.T) {
	_, err := New(Config{Layouts: &Layouts{Default: "missing"}})
	require.Error(t, err)
}

func TestInitialState(t *testing.T) {
	c, err := New(Config{Layouts: defaultLayouts(t), Logger: logging.Discard()})
	require.NoError(t, err)

	s := c.State()
	assert.Equal(t, Inactive, s.Mode())
	assert.Equal(t, BaseView, s.CurrentView)
	assert.Equal(t, "us", s.Layout)
	assert.True(t, s.Maximized)
	assert.Equal(t, protocol.Resize{Width: 1, Height: 1}, s.Geometry.Size)
}

func TestRunInstallsDefaultKeymap(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t)

	cmds := drain(h.vk)
	require.NotEmpty(t, cmds)
	km, ok := cmds[0].(protocol.SetKeymap)
	require.True(t, ok, "first command is %T", cmds[0])
	assert.Equal(t, "us", km.Layout)
	assert.Equal(t, 0, km.Bin)
	assert.NotNil(t, km.File)
	assert.Equal(t, uint32(len(h.c.Layout().Keymaps[0])), km.Size)
}

func TestKeyPressedSendsWireCode(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t, KeyPressed{Code: keymap.KeyCode{Code: 20}})

	keys := keyEvents(drain(h.vk))
	assert.Equal(t, []protocol.Key{
		{Keycode: 12, Motion: protocol.Pressed},
		{Keycode: 12, Motion: protocol.Released},
	}, keys)
}

func TestSizingFollowsPurpose(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)

	h.post(t, activate(protocol.PurposePassword)...)
	cmds := drain(h.win)
	assert.Equal(t, protocol.Resize{Width: 480, Height: 210}, lastResize(t, cmds))
	placement := lastPlacement(t, cmds)
	assert.Equal(t, protocol.LayerOverlay, placement.Layer)
	assert.Equal(t, int32(210), placement.ExclusiveZone)
	assert.Equal(t, ActiveMaximized, h.c.State().Mode())

	h.post(t, InputMethod{Event: protocol.ContentType{Purpose: uint32(protocol.PurposeNormal)}})
	assert.Equal(t, protocol.Resize{Width: 480, Height: 244}, lastResize(t, drain(h.win)))
}

func TestActivateWithoutPurposeStaysHidden(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t, InputMethod{Event: protocol.Activate{}})

	assert.Equal(t, protocol.Resize{Width: 1, Height: 1}, lastResize(t, drain(h.win)))
}

func TestMinimizeThenDeactivate(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t, activate(protocol.PurposeNormal)...)
	drain(h.win)

	h.post(t, Minimize{})
	s := h.c.State()
	assert.Equal(t, ActiveMinimized, s.Mode())
	assert.Equal(t, MinimizeView, s.CurrentView)
	cmds := drain(h.win)
	assert.Equal(t, protocol.Resize{Width: 80, Height: 60}, lastResize(t, cmds))
	assert.Equal(t, protocol.AnchorRight|protocol.AnchorBottom, lastPlacement(t, cmds).Anchor)

	h.post(t, InputMethod{Event: protocol.Deactivate{}})
	s = h.c.State()
	assert.Equal(t, Inactive, s.Mode())
	assert.True(t, s.Maximized)
	assert.Equal(t, BaseView, s.CurrentView)
	cmds = drain(h.win)
	assert.Equal(t, protocol.Resize{Width: 1, Height: 1}, lastResize(t, cmds))
	assert.Equal(t, protocol.LayerBottom, lastPlacement(t, cmds).Layer)
}

func TestToggleAndMaximizeButton(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t, activate(protocol.PurposeNormal)...)

	h.post(t, Toggle{})
	assert.False(t, h.c.State().Maximized)

	show := findButton(t, h.c.Layout(), MinimizeView, "show")
	h.post(t, ButtonReleased{Button: show})
	s := h.c.State()
	assert.True(t, s.Maximized)
	assert.Equal(t, BaseView, s.CurrentView)
	assert.Equal(t, protocol.Resize{Width: 480, Height: 244}, lastResize(t, drain(h.win)))
}

func TestUnknownPurposeIsIgnored(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t,
		InputMethod{Event: protocol.Activate{}},
		InputMethod{Event: protocol.ContentType{Purpose: 14}},
	)

	s := h.c.State()
	assert.False(t, s.HasPurpose)
	assert.Equal(t, protocol.Resize{Width: 1, Height: 1}, s.Geometry.Size)
}

func TestSurroundingTextPredicts(t *testing.T) {
	trie := predict.Build([]predict.Entry{
		{Word: "hello", Rank: 1},
		{Word: "help", Rank: 2},
		{Word: "helm", Rank: 4},
		{Word: "world", Rank: 3},
	})
	h := start(t, defaultLayouts(t), trie, 64)

	h.post(t, InputMethod{Event: protocol.SurroundingText{Text: "Say HEL", Cursor: 7}})

	s := h.c.State()
	assert.Equal(t, "hel", s.SuggestedFor)
	assert.Equal(t, []string{"hello", "help", "helm"}, s.Suggestions)
	assert.Equal(t, trie.NextCharProbabilities("hel"), map[string]float64(s.Probabilities))
	assert.Greater(t, s.Probabilities.Of("l"), s.Probabilities.Of("p"))
}

func TestSurroundingTextCursorMidRune(t *testing.T) {
	h := start(t, defaultLayouts(t), predict.Nop{}, 64)
	// Cursor 2 splits the two byte encoding of é.
	h.post(t, InputMethod{Event: protocol.SurroundingText{Text: "hé", Cursor: 2}})
	assert.Equal(t, "h", h.c.State().SuggestedFor)

	h.post(t, InputMethod{Event: protocol.SurroundingText{Text: "word ", Cursor: 99}})
	assert.Equal(t, "", h.c.State().SuggestedFor)
}

func TestSuggestionPressedReplacesWord(t *testing.T) {
	h := start(t, defaultLayouts(t), predict.Nop{}, 64)
	h.post(t,
		InputMethod{Event: protocol.SurroundingText{Text: "hel", Cursor: 3}},
		SuggestionPressed{Text: "hello"},
	)

	assert.Equal(t, []protocol.InputMethodCommand{
		protocol.DeleteSurroundingText{BeforeLength: 3, AfterLength: 0},
		protocol.CommitString{Text: "hello"},
		protocol.Commit{},
	}, drain(h.im))
}

func TestSuggestionPressedDeletesTypedBytes(t *testing.T) {
	h := start(t, defaultLayouts(t), predict.Nop{}, 64)
	// İ lower-cases to the one byte i, so the typed word is longer than
	// the lookup prefix.
	h.post(t, InputMethod{Event: protocol.SurroundingText{Text: "ok İs", Cursor: 6}})
	s := h.c.State()
	assert.Equal(t, "is", s.SuggestedFor)
	assert.Equal(t, "İs", s.TypedWord)

	h.post(t, SuggestionPressed{Text: "is"})
	assert.Equal(t, []protocol.InputMethodCommand{
		protocol.DeleteSurroundingText{BeforeLength: 3, AfterLength: 0},
		protocol.CommitString{Text: "is"},
		protocol.Commit{},
	}, drain(h.im))
}

func TestLatchingShift(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t, activate(protocol.PurposeNormal)...)
	pl := h.c.Layout()
	shift := findButton(t, pl, BaseView, "Shift_L")

	h.post(t, ButtonReleased{Button: shift})
	s := h.c.State()
	assert.Equal(t, "upper", s.CurrentView)
	assert.True(t, s.Latched)

	drain(h.vk)
	h.post(t, ButtonReleased{Button: findButton(t, pl, "upper", "A")})
	code, ok := pl.Keycode("A")
	require.True(t, ok)
	keys := keyEvents(drain(h.vk))
	require.Len(t, keys, 2)
	assert.Equal(t, code.Wire(), keys[0].Keycode)
	assert.Equal(t, BaseView, h.c.State().CurrentView)

	// Twice locks: keys no longer return to base.
	h.post(t, ButtonReleased{Button: shift}, ButtonReleased{Button: shift})
	s = h.c.State()
	assert.Equal(t, "upper", s.CurrentView)
	assert.False(t, s.Latched)
	h.post(t, ButtonReleased{Button: findButton(t, pl, "upper", "B")})
	assert.Equal(t, "upper", h.c.State().CurrentView)

	h.post(t, ButtonReleased{Button: shift})
	assert.Equal(t, BaseView, h.c.State().CurrentView)
}

func TestSetViewAndErase(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	pl := h.c.Layout()

	h.post(t, ButtonReleased{Button: findButton(t, pl, BaseView, "show_numbers")})
	assert.Equal(t, "numbers", h.c.State().CurrentView)

	drain(h.vk)
	h.post(t, ButtonReleased{Button: findButton(t, pl, "numbers", "BackSpace")})
	bs, ok := pl.Keycode("BackSpace")
	require.True(t, ok)
	keys := keyEvents(drain(h.vk))
	require.Len(t, keys, 2)
	assert.Equal(t, bs.Wire(), keys[0].Keycode)
}

func TestModifierButtons(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	pl := h.c.Layout()
	ctrl := findButton(t, pl, "symbols", "Ctrl")
	alt := findButton(t, pl, "symbols", "Alt")
	h.post(t)
	drain(h.vk)

	h.post(t, ButtonReleased{Button: ctrl})
	h.post(t, ButtonReleased{Button: alt})
	h.post(t, ButtonReleased{Button: ctrl})

	assert.Equal(t, []protocol.VirtualKeyboardCommand{
		protocol.SetModifiers{Depressed: 0x4},
		protocol.SetModifiers{Depressed: 0xc},
		protocol.SetModifiers{Depressed: 0x8},
	}, drain(h.vk))
	assert.True(t, h.c.State().Modifiers.Has(action.Alt))
}

func TestPreferencesCallback(t *testing.T) {
	called := make(chan struct{}, 1)
	c, err := New(Config{
		Layouts:       defaultLayouts(t),
		Logger:        logging.Discard(),
		OnPreferences: func() { called <- struct{}{} },
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	b := &layout.KeyButton{Name: "prefs", Action: action.ShowPreferences{}}
	require.NoError(t, c.Post(ctx, ButtonReleased{Button: b}))
	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("preferences callback not called")
	}
}

// wideLayout declares more symbols than fit in one keymap.
func wideLayout(t *testing.T, n int) *layout.ParsedLayout {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("outlines:\n  default: { width: 10, height: 10 }\nviews:\n  base:\n")
	for row := 0; row*30 < n; row++ {
		sb.WriteString("    - \"")
		for i := row * 30; i < min(n, (row+1)*30); i++ {
			if i > row*30 {
				sb.WriteByte(' ')
			}
			sb.WriteRune(rune(0x100 + i))
		}
		sb.WriteString("\"\n")
	}
	l, err := layout.Load(strings.NewReader(sb.String()))
	require.NoError(t, err)
	return l.Build()
}

func TestKeymapBinSwitching(t *testing.T) {
	pl := wideLayout(t, 300)
	require.Len(t, pl.Keymaps, 2)

	var low, high *layout.KeyButton
	for _, row := range pl.Views[BaseView].Rows {
		for _, b := range row.Buttons {
			switch b.Keycodes[0].Bin {
			case 0:
				low = b
			case 1:
				high = b
			}
		}
	}
	require.NotNil(t, low)
	require.NotNil(t, high)

	h := start(t, &Layouts{Default: "wide", ByName: map[string]*layout.ParsedLayout{"wide": pl}}, nil, 64)
	h.post(t)
	drain(h.vk)

	h.post(t, ButtonReleased{Button: high})
	cmds := drain(h.vk)
	require.Len(t, cmds, 3)
	km, ok := cmds[0].(protocol.SetKeymap)
	require.True(t, ok)
	assert.Equal(t, 1, km.Bin)
	assert.Equal(t, protocol.Key{Keycode: high.Keycodes[0].Wire(), Motion: protocol.Pressed}, cmds[1])

	h.post(t, ButtonReleased{Button: high})
	assert.Len(t, drain(h.vk), 2, "same bin needs no keymap")

	h.post(t, ButtonReleased{Button: low})
	cmds = drain(h.vk)
	require.Len(t, cmds, 3)
	assert.Equal(t, 0, cmds[0].(protocol.SetKeymap).Bin)
}

func TestPurposeSelectsLayout(t *testing.T) {
	layouts := defaultLayouts(t)
	layouts.ByName["wide"] = wideLayout(t, 10)
	layouts.ByPurpose = map[protocol.ContentPurpose]string{
		protocol.PurposeTerminal: "wide",
		protocol.PurposeEmail:    "absent",
	}
	h := start(t, layouts, nil, 64)
	h.post(t)
	drain(h.vk)

	h.post(t, activate(protocol.PurposeTerminal)...)
	assert.Equal(t, "wide", h.c.State().Layout)
	cmds := drain(h.vk)
	require.Len(t, cmds, 1)
	assert.Equal(t, "wide", cmds[0].(protocol.SetKeymap).Layout)

	h.post(t, InputMethod{Event: protocol.ContentType{Purpose: uint32(protocol.PurposeEmail)}})
	assert.Equal(t, "us", h.c.State().Layout)
}

func TestFullLinkNeverBlocks(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 1)
	for range 20 {
		h.post(t, KeyPressed{Code: keymap.KeyCode{Code: 30}})
	}
	assert.Positive(t, h.vk.Dropped())

	h.im.Close()
	h.post(t, SuggestionPressed{Text: "x"})
	assert.Empty(t, drain(h.im))
}

func TestWatchReceivesSnapshots(t *testing.T) {
	h := start(t, defaultLayouts(t), nil, 64)
	h.post(t)
	views := make(chan string, 16)
	h.c.Watch(func(s *State) { views <- s.CurrentView })

	h.post(t, ButtonReleased{Button: findButton(t, h.c.Layout(), BaseView, "show_numbers")})
	assert.Equal(t, "numbers", <-views)
}

func TestPostAfterStop(t *testing.T) {
	c, err := New(Config{Layouts: defaultLayouts(t), Logger: logging.Discard()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	require.NoError(t, c.Flush(context.Background()))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.ErrorIs(t, c.Post(context.Background(), Toggle{}), ErrStopped)
}

func TestTryPostNeverBlocks(t *testing.T) {
	c, err := New(Config{Layouts: defaultLayouts(t), Logger: logging.Discard()})
	require.NoError(t, err)

	// Not running yet, so nothing drains the queue.
	for range cap(c.events) {
		require.NoError(t, c.TryPost(Toggle{}))
	}
	assert.ErrorIs(t, c.TryPost(Toggle{}), ErrQueueFull)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.TryPost(Toggle{}))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.ErrorIs(t, c.TryPost(Toggle{}), ErrStopped)
}
