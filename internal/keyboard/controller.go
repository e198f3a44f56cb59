// Package keyboard coordinates the on-screen keyboard. A single controller
// goroutine owns all state and reacts to input method events and touches,
// sending commands to the input method, the virtual keyboard and the window
// host. Everyone else reads immutable snapshots.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"osk/internal/action"
	"osk/internal/keymap"
	"osk/internal/layout"
	"osk/internal/logging"
	"osk/internal/predict"
	"osk/internal/protocol"
)

// ErrStopped is returned when posting to a controller that is not running.
var ErrStopped = errors.New("keyboard: controller stopped")

// ErrQueueFull is returned by TryPost when the event queue has no room.
var ErrQueueFull = errors.New("keyboard: event queue full")

// Layouts holds the compiled layouts and which one serves each content
// purpose.
type Layouts struct {
	// Default names the layout used for purposes without an entry.
	Default   string
	ByName    map[string]*layout.ParsedLayout
	ByPurpose map[protocol.ContentPurpose]string
}

// For returns the name of the layout serving p.
func (l *Layouts) For(p protocol.ContentPurpose) string {
	if name, ok := l.ByPurpose[p]; ok {
		if _, ok := l.ByName[name]; ok {
			return name
		}
	}
	return l.Default
}

// Config wires a controller to its collaborators.
type Config struct {
	Layouts   *Layouts
	Predictor predict.Predictor
	Logger    *logging.Logger

	InputMethod     *Link[protocol.InputMethodCommand]
	VirtualKeyboard *Link[protocol.VirtualKeyboardCommand]
	Window          *Link[protocol.WindowCommand]

	// OnPreferences is called from the controller goroutine when a
	// preferences button is released.
	OnPreferences func()
}

type keymapKey struct {
	layout string
	bin    int
}

type keymapFile struct {
	file *os.File
	size uint32
}

// Controller is the input coordination state machine.
type Controller struct {
	cfg    Config
	log    *logging.Logger
	events chan Event

	snapshot atomic.Pointer[State]
	stopped  chan struct{}
	running  atomic.Bool

	watchMu  sync.Mutex
	watchers []func(*State)

	// Owned by the Run goroutine.
	st        *State
	installed *keymapKey
	keymaps   map[keymapKey]keymapFile
}

// New returns a controller in the Inactive state showing the base view of
// the default layout.
func New(cfg Config) (*Controller, error) {
	if cfg.Layouts == nil || cfg.Layouts.ByName[cfg.Layouts.Default] == nil {
		return nil, fmt.Errorf("keyboard: default layout missing")
	}
	if cfg.Predictor == nil {
		cfg.Predictor = predict.Nop{}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	c := &Controller{
		cfg:     cfg,
		log:     log.WithComponent("keyboard"),
		events:  make(chan Event, 64),
		stopped: make(chan struct{}),
		keymaps: make(map[keymapKey]keymapFile),
		st: &State{
			Maximized:   true,
			Layout:      cfg.Layouts.Default,
			CurrentView: BaseView,
		},
	}
	c.st.Geometry = TargetGeometry(c.st)
	c.snapshot.Store(c.st.clone())
	return c, nil
}

// State returns the latest snapshot. It never blocks.
func (c *Controller) State() *State {
	return c.snapshot.Load()
}

// Layout returns the parsed layout currently in use.
func (c *Controller) Layout() *layout.ParsedLayout {
	return c.cfg.Layouts.ByName[c.State().Layout]
}

// Watch registers fn to be called with every new snapshot. fn runs on the
// controller goroutine and must not block or post events synchronously.
func (c *Controller) Watch(fn func(*State)) {
	c.watchMu.Lock()
	c.watchers = append(c.watchers, fn)
	c.watchMu.Unlock()
}

// Post queues ev. It blocks only while the queue is full.
func (c *Controller) Post(ctx context.Context, ev Event) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost queues ev if there is room and never blocks. Callers on a
// frame loop use it instead of Post.
func (c *Controller) TryPost(ev Event) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}
	select {
	case c.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Flush waits until every event posted before it has been handled.
func (c *Controller) Flush(ctx context.Context) error {
	b := barrier{done: make(chan struct{})}
	if err := c.Post(ctx, b); err != nil {
		return err
	}
	select {
	case <-b.done:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles events until ctx is cancelled. It installs the default
// keymap first. Run may only be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("keyboard: controller already running")
	}
	defer c.closeKeymaps()
	defer close(c.stopped)

	c.installKeymap(keymapKey{layout: c.st.Layout})
	c.publish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			if b, ok := ev.(barrier); ok {
				close(b.done)
				continue
			}
			c.handle(ev)
			c.publish()
		}
	}
}

func (c *Controller) publish() {
	snap := c.st.clone()
	c.snapshot.Store(snap)

	c.watchMu.Lock()
	watchers := c.watchers
	c.watchMu.Unlock()
	for _, fn := range watchers {
		fn(snap)
	}
}

func (c *Controller) handle(ev Event) {
	switch e := ev.(type) {
	case InputMethod:
		c.handleInputMethod(e.Event)
	case Minimize:
		c.minimize()
	case Maximize:
		c.maximize()
	case Toggle:
		if c.st.Maximized {
			c.minimize()
		} else {
			c.maximize()
		}
	case KeyPressed:
		c.keyPressed(e.Code)
	case Erase:
		c.erase()
	case ApplyModifiers:
		c.applyModifiers(e.Modifiers)
	case SuggestionPressed:
		c.suggestionPressed(e.Text)
	case ButtonReleased:
		if e.Button != nil {
			c.buttonReleased(e.Button)
		}
	default:
		c.log.Warn("unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

func (c *Controller) handleInputMethod(ev protocol.InputMethodEvent) {
	switch e := ev.(type) {
	case protocol.Activate:
		c.log.Debug("activate")
		c.st.Visible = true
		c.st.Maximized = true
		c.recalculate()
	case protocol.Deactivate:
		c.log.Debug("deactivate")
		c.st.Visible = false
		c.st.HasPurpose = false
		c.recalculate()
		c.st.Maximized = true
		c.st.CurrentView = BaseView
		c.st.Latched = false
	case protocol.SurroundingText:
		c.surroundingText(e)
	case protocol.ContentType:
		purpose, err := protocol.ParsePurpose(e.Purpose)
		if err != nil {
			c.log.Debug("ignoring content type", "error", err)
			return
		}
		c.st.HasPurpose = true
		c.st.Purpose = purpose
		if name := c.cfg.Layouts.For(purpose); name != c.st.Layout {
			c.st.Layout = name
			if !c.currentLayout().HasView(c.st.CurrentView) {
				c.st.CurrentView = BaseView
			}
			c.st.Latched = false
		}
		c.recalculate()
	}
}

// surroundingText predicts from the word that ends at the cursor.
func (c *Controller) surroundingText(e protocol.SurroundingText) {
	cursor := min(int(e.Cursor), len(e.Text))
	for cursor > 0 && cursor < len(e.Text) && !utf8.RuneStart(e.Text[cursor]) {
		cursor--
	}
	before := e.Text[:cursor]
	word := before[strings.LastIndexFunc(before, unicode.IsSpace)+1:]
	prefix := strings.ToLower(word)

	c.st.Suggestions = c.cfg.Predictor.Search(prefix)
	c.st.SuggestedFor = prefix
	c.st.TypedWord = word
	c.st.Probabilities = c.cfg.Predictor.NextCharProbabilities(prefix)
}

func (c *Controller) minimize() {
	if c.currentLayout().HasView(MinimizeView) {
		c.st.CurrentView = MinimizeView
	}
	c.st.Maximized = false
	c.recalculate()
}

func (c *Controller) maximize() {
	c.st.Maximized = true
	c.st.CurrentView = BaseView
	c.st.Latched = false
	c.recalculate()
}

// recalculate sends the window geometry for the current state and makes
// sure the current layout's keymap is installed while the keyboard is
// fully shown.
func (c *Controller) recalculate() {
	g := TargetGeometry(c.st)
	c.st.Geometry = g
	if c.st.Mode() == ActiveMaximized && c.st.HasPurpose {
		if c.installed == nil || c.installed.layout != c.st.Layout {
			c.installKeymap(keymapKey{layout: c.st.Layout})
		}
	}
	c.cfg.Window.Send(g.Size)
	c.cfg.Window.Send(g.Placement)
}

func (c *Controller) currentLayout() *layout.ParsedLayout {
	return c.cfg.Layouts.ByName[c.st.Layout]
}

func (c *Controller) installKeymap(key keymapKey) {
	km, ok := c.keymaps[key]
	if !ok {
		pl := c.cfg.Layouts.ByName[key.layout]
		if pl == nil || key.bin >= len(pl.Keymaps) {
			c.log.Warn("no keymap", "layout", key.layout, "bin", key.bin)
			return
		}
		f, size, err := keymap.NewFile(pl.Keymaps[key.bin])
		if err != nil {
			c.log.Error("failed to create keymap file", "layout", key.layout, "bin", key.bin, "error", err)
			return
		}
		km = keymapFile{file: f, size: size}
		c.keymaps[key] = km
	}
	c.cfg.VirtualKeyboard.Send(protocol.SetKeymap{
		File:   km.file,
		Size:   km.size,
		Layout: key.layout,
		Bin:    key.bin,
	})
	c.installed = &key
}

func (c *Controller) closeKeymaps() {
	for key, km := range c.keymaps {
		km.file.Close()
		delete(c.keymaps, key)
	}
}

// keyPressed sends a press and a release for code, switching keymap bins
// first when needed.
func (c *Controller) keyPressed(code keymap.KeyCode) {
	want := keymapKey{layout: c.st.Layout, bin: code.Bin}
	if c.installed == nil || *c.installed != want {
		c.installKeymap(want)
	}
	wire := code.Wire()
	c.cfg.VirtualKeyboard.Send(protocol.Key{Keycode: wire, Motion: protocol.Pressed})
	c.cfg.VirtualKeyboard.Send(protocol.Key{Keycode: wire, Motion: protocol.Released})
}

func (c *Controller) erase() {
	code, ok := c.currentLayout().Keycode("BackSpace")
	if !ok {
		c.log.Warn("layout has no BackSpace key", "layout", c.st.Layout)
		return
	}
	c.keyPressed(code)
}

func (c *Controller) applyModifiers(mods action.ModifierSet) {
	c.st.Modifiers = mods
	c.cfg.VirtualKeyboard.Send(protocol.SetModifiers{Depressed: uint32(mods.Mask())})
}

func (c *Controller) suggestionPressed(text string) {
	c.cfg.InputMethod.Send(protocol.DeleteSurroundingText{BeforeLength: uint32(len(c.st.TypedWord))})
	c.cfg.InputMethod.Send(protocol.CommitString{Text: text})
	c.cfg.InputMethod.Send(protocol.Commit{})
}

func (c *Controller) setView(name string) {
	if !c.currentLayout().HasView(name) {
		c.log.Warn("view not in layout", "view", name, "layout", c.st.Layout)
		name = BaseView
	}
	c.st.CurrentView = name
}

// unlatch returns from a latched view after a key was submitted.
func (c *Controller) unlatch() {
	if c.st.Latched {
		c.st.Latched = false
		c.setView(c.st.LatchReturn)
	}
}

func (c *Controller) buttonReleased(b *layout.KeyButton) {
	switch a := b.Action.(type) {
	case action.SetView:
		c.st.Latched = false
		c.setView(a.View)
	case action.LockView:
		switch {
		case c.st.CurrentView != a.Lock:
			c.setView(a.Lock)
			c.st.Latched = a.Latches
			c.st.LatchReturn = a.Unlock
		case c.st.Latched:
			c.st.Latched = false
		default:
			c.setView(a.Unlock)
		}
	case action.ApplyModifier:
		c.applyModifiers(c.st.Modifiers.Toggle(a.Modifier))
	case action.Submit:
		for _, code := range b.Keycodes {
			c.keyPressed(code)
		}
		c.unlatch()
	case action.Erase:
		c.erase()
		c.unlatch()
	case action.ShowPreferences:
		if c.cfg.OnPreferences != nil {
			c.cfg.OnPreferences()
		}
	case action.Minimize:
		c.minimize()
	case action.Maximize:
		c.maximize()
	}
}
