package proximity

import (
	"maps"

	"osk/internal/layout"
)

// Panel is the touch surface of one view. It caches the adjusted matrix
// between probability updates and tracks the pressed button for
// highlighting. A Panel belongs to the UI goroutine and is not safe for
// concurrent use.
type Panel struct {
	margins    layout.Margins
	increaseBy float64

	view    *layout.View
	probs   Probabilities
	base    Matrix
	matrix  Matrix
	pressed *layout.KeyButton
}

// NewPanel returns an empty panel. Call Sync before the first Press.
func NewPanel(margins layout.Margins, increaseBy float64) *Panel {
	return &Panel{margins: margins, increaseBy: increaseBy}
}

// Sync points the panel at view and probs, recomputing hit areas when
// either changed. Switching views clears the pressed button.
func (p *Panel) Sync(view *layout.View, probs Probabilities) {
	if view != p.view {
		p.view = view
		p.base = nil
		p.pressed = nil
	}
	if p.base == nil && view != nil {
		p.base = BuildMatrix(view, p.margins)
		p.matrix = nil
	}
	if p.matrix == nil || !maps.Equal(probs, p.probs) {
		p.probs = maps.Clone(probs)
		p.matrix = Adjust(p.base, p.probs, p.increaseBy)
	}
}

// SetIncrease changes the hit area growth and recomputes the matrix.
func (p *Panel) SetIncrease(by float64) {
	if by == p.increaseBy {
		return
	}
	p.increaseBy = by
	p.matrix = Adjust(p.base, p.probs, p.increaseBy)
}

// SetMargins changes the view margins and rebuilds the geometry.
func (p *Panel) SetMargins(m layout.Margins) {
	p.margins = m
	if p.view != nil {
		p.base = BuildMatrix(p.view, m)
		p.matrix = Adjust(p.base, p.probs, p.increaseBy)
	}
}

// Matrix returns the current adjusted matrix. Callers must not keep it
// across Sync calls.
func (p *Panel) Matrix() Matrix {
	return p.matrix
}

// Base returns the button rectangles before expansion.
func (p *Panel) Base() Matrix {
	return p.base
}

// Size returns the size of the current view including margins.
func (p *Panel) Size() layout.Size {
	if p.view == nil {
		return layout.Size{}
	}
	return ViewSize(p.view, p.margins)
}

// Press resolves pos and records the result as pressed. A press while
// another button is held replaces it. It returns nil on a miss, which also
// clears the pressed button.
func (p *Panel) Press(pos Point) *layout.KeyButton {
	p.pressed = Resolve(p.matrix, p.probs, pos)
	return p.pressed
}

// Release clears the pressed button and returns it.
func (p *Panel) Release() *layout.KeyButton {
	b := p.pressed
	p.pressed = nil
	return b
}

// Pressed returns the held button, if any.
func (p *Panel) Pressed() *layout.KeyButton {
	return p.pressed
}
