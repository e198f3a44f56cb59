// Package host shows the keyboard in a Gio window. It draws the current
// view, turns pointer presses into touches on the proximity panel and
// applies the window commands the controller sends.
package host

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/font/gofont"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	gl "gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"osk/internal/keyboard"
	"osk/internal/layout"
	"osk/internal/logging"
	"osk/internal/protocol"
	"osk/internal/proximity"
)

// Keyboard is the part of the controller the window needs.
type Keyboard interface {
	TryPost(ev keyboard.Event) error
	State() *keyboard.State
	Layout() *layout.ParsedLayout
}

// Config configures a Host.
type Config struct {
	Title string
	// Scale converts layout units to Dp.
	Scale        float32
	IncreaseBy   float64
	ShowHitAreas bool

	Keyboard Keyboard
	Window   *keyboard.Link[protocol.WindowCommand]
	Logger   *logging.Logger
}

// Host owns the window.
type Host struct {
	cfg     Config
	log     *logging.Logger
	theme   *Theme
	surface *Surface
	window  atomic.Pointer[app.Window]

	mu         sync.Mutex
	increaseBy float64
	showHits   bool
}

// New returns a host. Run opens the window.
func New(cfg Config) *Host {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	mt := material.NewTheme()
	mt.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	return &Host{
		cfg:        cfg,
		log:        log.WithComponent("host"),
		theme:      NewTheme(mt),
		surface:    NewSurface(),
		increaseBy: cfg.IncreaseBy,
		showHits:   cfg.ShowHitAreas,
	}
}

// SetClickArea changes the hit area growth and overlay at runtime.
func (h *Host) SetClickArea(increaseBy float64, visible bool) {
	h.mu.Lock()
	h.increaseBy, h.showHits = increaseBy, visible
	h.mu.Unlock()
	h.invalidate()
}

func (h *Host) clickArea() (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.increaseBy, h.showHits
}

// Watch redraws the window for every new controller snapshot.
func (h *Host) Watch(*keyboard.State) {
	h.invalidate()
}

func (h *Host) invalidate() {
	if w := h.window.Load(); w != nil {
		w.Invalidate()
	}
}

func (h *Host) dp(v uint32) unit.Dp {
	return unit.Dp(float32(v) * h.cfg.Scale)
}

// Run opens the window and handles its events until the window is closed
// or ctx is cancelled. Gio requires app.Main on the main goroutine.
func (h *Host) Run(ctx context.Context) error {
	w := new(app.Window)
	size := h.cfg.Keyboard.State().Geometry.Size
	w.Option(
		app.Title(h.cfg.Title),
		app.Size(h.dp(size.Width), h.dp(size.Height)),
		app.Decorated(false),
	)
	h.window.Store(w)

	done := make(chan struct{})
	defer close(done)
	go h.applyCommands(ctx, w, done)
	go func() {
		select {
		case <-ctx.Done():
			w.Perform(system.ActionClose)
		case <-done:
		}
	}()

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			h.frame(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (h *Host) applyCommands(ctx context.Context, w *app.Window, done <-chan struct{}) {
	if h.cfg.Window == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-h.cfg.Window.Done():
			return
		case cmd := <-h.cfg.Window.C():
			switch c := cmd.(type) {
			case protocol.Resize:
				w.Option(app.Size(h.dp(c.Width), h.dp(c.Height)))
			case protocol.ReconfigureAnchor:
				// Plain toplevel windows cannot be anchored.
				h.log.Debug("placement", "anchor", c.Anchor.String(), "layer", c.Layer.String(), "exclusive_zone", c.ExclusiveZone)
			}
		}
	}
}

func (h *Host) frame(gtx gl.Context) {
	inc, showHits := h.clickArea()
	h.surface.Sync(h.cfg.Keyboard.Layout(), h.cfg.Keyboard.State(), inc)
	h.surface.SetUnit(gtx.Metric.PxPerDp * h.cfg.Scale)

	h.handlePointer(gtx)

	paint.Fill(gtx.Ops, h.theme.Palette.Background)
	area := clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops)
	event.Op(gtx.Ops, h)
	area.Pop()

	u := h.surface.Unit()
	for _, k := range h.surface.Keys() {
		h.drawKey(gtx, k, u)
		if showHits {
			h.drawQuad(gtx, k.Hit, u)
		}
	}
}

func (h *Host) handlePointer(gtx gl.Context) {
	for {
		ev, ok := gtx.Event(pointer.Filter{Target: h, Kinds: pointer.Press | pointer.Release | pointer.Cancel})
		if !ok {
			return
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Press:
			h.surface.Press(e.Position.X, e.Position.Y)
		case pointer.Release:
			if b := h.surface.Release(); b != nil {
				h.release(b)
			}
		case pointer.Cancel:
			h.surface.Cancel()
		}
	}
}

// release hands a tapped button to the controller without blocking the
// frame loop. A release that finds the queue full is dropped.
func (h *Host) release(b *layout.KeyButton) {
	if err := h.cfg.Keyboard.TryPost(keyboard.ButtonReleased{Button: b}); err != nil {
		h.log.Warn("dropping button release", "button", b.Name, "error", err)
	}
}

func (h *Host) drawKey(gtx gl.Context, k Key, u float32) {
	gap := h.theme.Metrics.KeyGap * u
	r := image.Rect(
		int(float32(k.Rect.TL.X)*u+gap), int(float32(k.Rect.TL.Y)*u+gap),
		int(float32(k.Rect.BR.X)*u-gap), int(float32(k.Rect.BR.Y)*u-gap),
	)
	if r.Empty() {
		return
	}
	radius := int(h.theme.Metrics.CornerRadius * u)
	paint.FillShape(gtx.Ops, h.theme.KeyColor(k.State), clip.UniformRRect(r, radius).Op(gtx.Ops))

	if k.Text == "" {
		return
	}
	stack := op.Offset(r.Min).Push(gtx.Ops)
	lgtx := gtx
	lgtx.Constraints = gl.Exact(r.Size())
	lbl := material.Label(h.theme.Theme, h.theme.Metrics.FontSize, k.Text)
	lbl.Color = h.theme.Palette.Text
	lbl.Alignment = text.Middle
	lbl.MaxLines = 1
	gl.Center.Layout(lgtx, lbl.Layout)
	stack.Pop()
}

func (h *Host) drawQuad(gtx gl.Context, q proximity.Quad, u float32) {
	pt := func(p proximity.Point) f32.Point {
		return f32.Pt(float32(p.X)*u, float32(p.Y)*u)
	}
	var p clip.Path
	p.Begin(gtx.Ops)
	p.MoveTo(pt(q.TL))
	p.LineTo(pt(q.BL))
	p.LineTo(pt(q.BR))
	p.LineTo(pt(q.TR))
	p.Close()
	paint.FillShape(gtx.Ops, h.theme.Palette.HitArea, clip.Stroke{Path: p.End(), Width: 1}.Op())
}
