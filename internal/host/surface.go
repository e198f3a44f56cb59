package host

import (
	"osk/internal/action"
	"osk/internal/keyboard"
	"osk/internal/layout"
	"osk/internal/proximity"
)

// Surface is the toolkit independent part of the window: it tracks the
// shown view and converts pointer positions in pixels into buttons.
type Surface struct {
	layout *layout.ParsedLayout
	panel  *proximity.Panel
	view   string

	// unit is the number of pixels per layout unit.
	unit float32
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{unit: 1}
}

// Sync shows the state's current view of pl with the given hit area growth.
func (s *Surface) Sync(pl *layout.ParsedLayout, st *keyboard.State, increaseBy float64) {
	if pl == nil {
		return
	}
	if pl != s.layout {
		s.layout = pl
		s.panel = proximity.NewPanel(pl.Margins, increaseBy)
	}
	s.panel.SetIncrease(increaseBy)
	s.view = st.CurrentView
	s.panel.Sync(pl.Views[st.CurrentView], st.Probabilities)
}

// SetUnit sets the pixels per layout unit.
func (s *Surface) SetUnit(px float32) {
	if px > 0 {
		s.unit = px
	}
}

func (s *Surface) point(x, y float32) proximity.Point {
	return proximity.Point{X: float64(x / s.unit), Y: float64(y / s.unit)}
}

// Press resolves a pointer press at pixel position (x, y).
func (s *Surface) Press(x, y float32) *layout.KeyButton {
	if s.panel == nil {
		return nil
	}
	return s.panel.Press(s.point(x, y))
}

// Release ends the touch and returns the button to activate, if any.
func (s *Surface) Release() *layout.KeyButton {
	if s.panel == nil {
		return nil
	}
	return s.panel.Release()
}

// Cancel ends the touch without activating anything.
func (s *Surface) Cancel() {
	if s.panel != nil {
		s.panel.Release()
	}
}

// KeyState is how a key is drawn.
type KeyState int

const (
	KeyIdle KeyState = iota
	KeyPressed
	// KeyActive marks view switches targeting the shown view.
	KeyActive
	// KeyLocked marks lock buttons whose view is shown.
	KeyLocked
)

// Key is a button ready for drawing, in layout units.
type Key struct {
	Button *layout.KeyButton
	Rect   proximity.Quad
	Hit    proximity.Quad
	State  KeyState
	Text   string
}

// Keys lists the visible buttons in row-major order.
func (s *Surface) Keys() []Key {
	if s.panel == nil {
		return nil
	}
	base, hits := s.panel.Base(), s.panel.Matrix()
	pressed := s.panel.Pressed()

	var keys []Key
	for i, row := range base {
		for j, cell := range row {
			k := Key{Button: cell.Button, Rect: cell.Quad, Hit: cell.Quad, Text: Glyph(cell.Button.Label)}
			if i < len(hits) && j < len(hits[i]) {
				k.Hit = hits[i][j].Quad
			}
			a := cell.Button.Action
			switch {
			case cell.Button == pressed:
				k.State = KeyPressed
			case action.IsLocked(a, s.view) || action.HasLockedAppearanceFrom(a, s.view):
				k.State = KeyLocked
			case action.IsActive(a, s.view):
				k.State = KeyActive
			}
			keys = append(keys, k)
		}
	}
	return keys
}

// Size returns the view size in pixels.
func (s *Surface) Size() (w, h float32) {
	if s.panel == nil {
		return 0, 0
	}
	sz := s.panel.Size()
	return float32(sz.Width) * s.unit, float32(sz.Height) * s.unit
}

// Unit returns the pixels per layout unit.
func (s *Surface) Unit() float32 {
	return s.unit
}

var iconGlyphs = map[string]string{
	"key-shift":           "⇧",
	"edit-clear-symbolic": "⌫",
	"key-enter":           "⏎",
	"keyboard-hide":       "▾",
	"keyboard":            "⌨",
}

// Glyph returns the text drawn for a label. Icons without a glyph show
// their name.
func Glyph(l layout.Label) string {
	if l.Icon == "" {
		return l.Text
	}
	if g, ok := iconGlyphs[l.Icon]; ok {
		return g
	}
	return l.Icon
}
