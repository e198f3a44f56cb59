// Package proximity maps touch points to buttons. Hit areas start as the
// button rectangles and grow toward neighbors the predictor considers
// unlikely, so imprecise taps land on the expected key.
package proximity

import (
	"strings"

	"osk/internal/layout"
)

// DefaultIncrease is how far, in layout units, a likely button's hit area
// grows over an unlikely neighbor.
const DefaultIncrease = 10

// Point is a position in layout units relative to the panel's top left.
type Point struct {
	X, Y float64
}

// Quad is a hit area given by its top-left, bottom-left, bottom-right and
// top-right corners. Edges stay axis aligned but opposite edges may differ.
type Quad struct {
	TL, BL, BR, TR Point
}

// Contains reports whether p lies within q, edges included.
func (q Quad) Contains(p Point) bool {
	return p.X >= q.TL.X && p.X >= q.BL.X && p.X <= q.TR.X && p.X <= q.BR.X &&
		p.Y >= q.TL.Y && p.Y >= q.TR.Y && p.Y <= q.BL.Y && p.Y <= q.BR.Y
}

// Center returns the midpoint of the quad.
func (q Quad) Center() Point {
	return Point{
		X: (q.TL.X + q.BL.X + q.BR.X + q.TR.X) / 4,
		Y: (q.TL.Y + q.BL.Y + q.BR.Y + q.TR.Y) / 4,
	}
}

// Width returns the horizontal extent of the quad's top edge.
func (q Quad) Width() float64 { return q.TR.X - q.TL.X }

// Height returns the vertical extent of the quad's left edge.
func (q Quad) Height() float64 { return q.BL.Y - q.TL.Y }

// Cell pairs a button with its hit area.
type Cell struct {
	Button *layout.KeyButton
	Quad   Quad
}

// Matrix holds one slice of cells per row, in layout order.
type Matrix [][]Cell

// Probabilities maps a character to the likelihood that it is typed next.
type Probabilities map[string]float64

// Of returns the probability of the character a button named name submits.
// Upper case views share the probabilities of their lower case letters.
func (p Probabilities) Of(name string) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return p[strings.ToLower(name)]
}

// ViewSize returns the size of v including margins. Rows are as tall as
// their tallest button and the view is as wide as its widest row.
func ViewSize(v *layout.View, m layout.Margins) layout.Size {
	var width, height float64
	for _, row := range v.Rows {
		w, h := rowSize(row)
		width = max(width, w)
		height += h
	}
	return layout.Size{
		Width:  width + 2*m.Side,
		Height: height + m.Top + m.Bottom,
	}
}

func rowSize(row layout.Row) (width, height float64) {
	for _, b := range row.Buttons {
		width += b.Size.Width
		height = max(height, b.Size.Height)
	}
	return width, height
}

// BuildMatrix lays out v: rows stack from the top margin down and each row
// is centered horizontally on the widest row.
func BuildMatrix(v *layout.View, m layout.Margins) Matrix {
	var widest float64
	for _, row := range v.Rows {
		w, _ := rowSize(row)
		widest = max(widest, w)
	}

	matrix := make(Matrix, 0, len(v.Rows))
	y := m.Top
	for _, row := range v.Rows {
		w, h := rowSize(row)
		x := m.Side + (widest-w)/2
		cells := make([]Cell, 0, len(row.Buttons))
		for _, b := range row.Buttons {
			tl := Point{X: x, Y: y}
			cells = append(cells, Cell{
				Button: b,
				Quad: Quad{
					TL: tl,
					BL: Point{X: tl.X, Y: tl.Y + b.Size.Height},
					BR: Point{X: tl.X + b.Size.Width, Y: tl.Y + b.Size.Height},
					TR: Point{X: tl.X + b.Size.Width, Y: tl.Y},
				},
			})
			x += b.Size.Width
		}
		matrix = append(matrix, cells)
		y += h
	}
	return matrix
}

// neighbor returns the probability of the cell at (i, j), or 0 outside the
// grid. Rows may differ in length.
func neighbor(m Matrix, probs Probabilities, i, j int) float64 {
	if i < 0 || i >= len(m) || j < 0 || j >= len(m[i]) {
		return 0
	}
	return probs.Of(m[i][j].Button.Name)
}

// Adjust returns a copy of m where every button with a positive probability
// has each edge facing a zero probability neighbor pushed out by increaseBy.
// Grid edges count as zero probability neighbors. m is not modified.
func Adjust(m Matrix, probs Probabilities, increaseBy float64) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]Cell, len(row))
		for j, cell := range row {
			p := probs.Of(cell.Button.Name)
			q := cell.Quad
			if p > 0 {
				if neighbor(m, probs, i-1, j) == 0 {
					q.TL.Y -= increaseBy
					q.TR.Y -= increaseBy
				}
				if neighbor(m, probs, i, j-1) == 0 {
					q.TL.X -= increaseBy
					q.BL.X -= increaseBy
				}
				if neighbor(m, probs, i+1, j) == 0 {
					q.BL.Y += increaseBy
					q.BR.Y += increaseBy
				}
				if neighbor(m, probs, i, j+1) == 0 {
					q.TR.X += increaseBy
					q.BR.X += increaseBy
				}
			}
			out[i][j] = Cell{Button: cell.Button, Quad: q}
		}
	}
	return out
}

// Resolve returns the button whose hit area contains p. When areas overlap
// the most probable button wins, and among equals the first in row-major
// order. It returns nil when p hits nothing.
func Resolve(m Matrix, probs Probabilities, p Point) *layout.KeyButton {
	var (
		best  *layout.KeyButton
		bestP float64
	)
	for _, row := range m {
		for _, cell := range row {
			if !cell.Quad.Contains(p) {
				continue
			}
			cp := probs.Of(cell.Button.Name)
			if best == nil || cp > bestP {
				best, bestP = cell.Button, cp
			}
		}
	}
	return best
}
