package proximity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/layout"
)

func button(name string, w, h float64) *layout.KeyButton {
	return &layout.KeyButton{Name: name, Size: layout.Size{Width: w, Height: h}}
}

// grid builds a view of square buttons of the given size from rows of names.
func grid(size float64, rows ...string) *layout.View {
	v := &layout.View{}
	for _, r := range rows {
		var row layout.Row
		for _, name := range strings.Fields(r) {
			row.Buttons = append(row.Buttons, button(name, size, size))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func TestBuildMatrixGeometry(t *testing.T) {
	v := &layout.View{Rows: []layout.Row{
		{Buttons: []*layout.KeyButton{button("a", 10, 10), button("b", 20, 10)}},
		{Buttons: []*layout.KeyButton{button("c", 10, 15)}},
	}}
	m := BuildMatrix(v, layout.Margins{Top: 2, Side: 3, Bottom: 4})

	require.Len(t, m, 2)
	assert.Equal(t, Quad{
		TL: Point{3, 2}, BL: Point{3, 12}, BR: Point{13, 12}, TR: Point{13, 2},
	}, m[0][0].Quad)
	assert.Equal(t, Point{13, 2}, m[0][1].Quad.TL)
	// Second row is centered on the 30 wide first row.
	assert.Equal(t, Quad{
		TL: Point{13, 12}, BL: Point{13, 27}, BR: Point{23, 27}, TR: Point{23, 12},
	}, m[1][0].Quad)

	assert.Equal(t, layout.Size{Width: 36, Height: 31}, ViewSize(v, layout.Margins{Top: 2, Side: 3, Bottom: 4}))
}

func TestCenterResolvesWithoutExpansion(t *testing.T) {
	v := grid(10, "q w e", "a s d", "z x c")
	tests := []struct {
		name  string
		probs Probabilities
	}{
		{name: "no probabilities", probs: nil},
		{name: "all likely", probs: Probabilities{
			"q": .1, "w": .1, "e": .1, "a": .1, "s": .1, "d": .1, "z": .1, "x": .1, "c": .1,
		}},
		{name: "only neighbors likely", probs: Probabilities{"w": .5, "a": .5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Adjust(BuildMatrix(v, layout.Margins{}), tt.probs, 3)
			for _, row := range m {
				for _, cell := range row {
					got := Resolve(m, tt.probs, cell.Quad.Center())
					require.NotNil(t, got)
					assert.Equal(t, cell.Button.Name, got.Name)
				}
			}
		})
	}
}

func TestAdjustExpandsTowardUnlikelyNeighbors(t *testing.T) {
	v := grid(10, "q w e", "a s d", "z x c")
	base := BuildMatrix(v, layout.Margins{})
	probs := Probabilities{"s": .9, "d": .1}

	m := Adjust(base, probs, 5)
	s := m[1][1].Quad
	orig := base[1][1].Quad

	assert.Equal(t, orig.TL.Y-5, s.TL.Y, "top neighbor w is unlikely")
	assert.Equal(t, orig.TL.X-5, s.TL.X, "left neighbor a is unlikely")
	assert.Equal(t, orig.BL.Y+5, s.BL.Y, "bottom neighbor x is unlikely")
	assert.Equal(t, orig.TR.X, s.TR.X, "right neighbor d is likely")

	// Unlikely buttons never move.
	assert.Equal(t, base[0][0].Quad, m[0][0].Quad)
	// The input matrix is left alone.
	assert.Equal(t, orig, base[1][1].Quad)
}

func TestAdjustGridEdgesCountAsUnlikely(t *testing.T) {
	m := Adjust(BuildMatrix(grid(10, "a"), layout.Margins{}), Probabilities{"a": 1}, 3)
	assert.Equal(t, Quad{
		TL: Point{-3, -3}, BL: Point{-3, 13}, BR: Point{13, 13}, TR: Point{13, -3},
	}, m[0][0].Quad)
}

func TestAdjustUsesActualRowLengths(t *testing.T) {
	// b has no button below it even though the first row is longer.
	v := grid(10, "a b", "c")
	m := Adjust(BuildMatrix(v, layout.Margins{}), Probabilities{"b": 1, "c": 1}, 2)
	assert.Equal(t, 12.0, m[0][1].Quad.BL.Y)
}

func TestExpansionMonotonicity(t *testing.T) {
	v := grid(10, "q w e", "a s d", "z x c")
	base := BuildMatrix(v, layout.Margins{})
	baseline := base[1][1].Quad

	for _, p := range []float64{0, 0.01, 0.5, 1} {
		m := Adjust(base, Probabilities{"s": p}, DefaultIncrease)
		q := m[1][1].Quad
		assert.LessOrEqual(t, q.TL.X, baseline.TL.X)
		assert.LessOrEqual(t, q.TL.Y, baseline.TL.Y)
		assert.GreaterOrEqual(t, q.BR.X, baseline.BR.X)
		assert.GreaterOrEqual(t, q.BR.Y, baseline.BR.Y)

		// Every point of the baseline still resolves to s.
		for _, pt := range []Point{baseline.TL, baseline.BR, baseline.Center(), {X: baseline.TL.X + 1, Y: baseline.BR.Y - 1}} {
			got := Resolve(m, Probabilities{"s": p}, pt)
			if p > 0 {
				require.NotNil(t, got)
				assert.Equal(t, "s", got.Name)
			}
		}
	}
}

func TestResolveTieBreak(t *testing.T) {
	v := grid(10, "a b")
	m := BuildMatrix(v, layout.Margins{})

	// x=10 is on the shared edge: both contain it.
	edge := Point{X: 10, Y: 5}
	assert.Equal(t, "a", Resolve(m, nil, edge).Name, "first match wins among equals")
	assert.Equal(t, "b", Resolve(m, Probabilities{"b": .2, "a": .1}, edge).Name)
	assert.Equal(t, "a", Resolve(m, Probabilities{"a": .2, "b": .2}, edge).Name)

	assert.Nil(t, Resolve(m, nil, Point{X: 50, Y: 5}))
}

func TestTapBetweenLikelyAndUnlikelyNeighbor(t *testing.T) {
	v := grid(40, "q w e r t y u i o p", "a s d f g h j k l")
	probs := Probabilities{"l": 0.9, "p": 0.05}
	panel := NewPanel(layout.Margins{}, DefaultIncrease)
	panel.Sync(v, probs)

	k := BuildMatrix(v, layout.Margins{})[1][7].Quad
	// Inside k, 3 units left of the k/l border.
	tap := Point{X: k.TR.X - 3, Y: k.Center().Y}

	got := panel.Press(tap)
	require.NotNil(t, got)
	assert.Equal(t, "l", got.Name)

	// Well inside k it is still k.
	assert.Equal(t, "k", panel.Press(k.Center()).Name)
}

func TestProbabilitiesFoldCase(t *testing.T) {
	probs := Probabilities{"l": .5}
	assert.Equal(t, .5, probs.Of("L"))
	assert.Equal(t, .5, probs.Of("l"))
	assert.Zero(t, probs.Of("k"))
}

func TestPanelPressRelease(t *testing.T) {
	v := grid(10, "a b")
	panel := NewPanel(layout.Margins{}, DefaultIncrease)
	panel.Sync(v, nil)

	assert.Equal(t, "a", panel.Press(Point{X: 5, Y: 5}).Name)
	assert.Equal(t, "a", panel.Pressed().Name)

	// Re-press before release: last write wins.
	assert.Equal(t, "b", panel.Press(Point{X: 15, Y: 5}).Name)
	assert.Equal(t, "b", panel.Pressed().Name)

	assert.Equal(t, "b", panel.Release().Name)
	assert.Nil(t, panel.Pressed())
	assert.Nil(t, panel.Release())

	panel.Press(Point{X: 5, Y: 5})
	panel.Sync(grid(10, "c"), nil)
	assert.Nil(t, panel.Pressed(), "switching views clears the pressed button")
}

func TestPanelResync(t *testing.T) {
	v := grid(10, "a b")
	panel := NewPanel(layout.Margins{}, 4)
	panel.Sync(v, nil)
	assert.Equal(t, 0.0, panel.Matrix()[0][0].Quad.TL.X)

	panel.Sync(v, Probabilities{"a": 1})
	assert.Equal(t, -4.0, panel.Matrix()[0][0].Quad.TL.X)

	panel.SetIncrease(6)
	assert.Equal(t, -6.0, panel.Matrix()[0][0].Quad.TL.X)

	panel.SetMargins(layout.Margins{Side: 1})
	assert.Equal(t, -5.0, panel.Matrix()[0][0].Quad.TL.X)
	assert.Equal(t, layout.Size{Width: 22, Height: 10}, panel.Size())
}
