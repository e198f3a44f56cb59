package host

import (
	"image/color"

	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the keyboard colors.
type Palette struct {
	Background color.NRGBA
	Key        color.NRGBA
	KeyPressed color.NRGBA
	KeyActive  color.NRGBA
	KeyLocked  color.NRGBA
	Text       color.NRGBA
	HitArea    color.NRGBA
}

// Metrics defines the keyboard metrics in layout units.
type Metrics struct {
	CornerRadius float32
	KeyGap       float32
	FontSize     unit.Sp
}

// Theme wraps the material theme with keyboard styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Metrics Metrics
}

// NewTheme returns the dark keyboard theme.
func NewTheme(mtheme *material.Theme) *Theme {
	return &Theme{
		Theme: mtheme,
		Palette: Palette{
			Background: color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF},
			Key:        color.NRGBA{R: 0x32, G: 0x32, B: 0x32, A: 0xFF},
			KeyPressed: color.NRGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xFF},
			KeyActive:  color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3C, A: 0xFF},
			KeyLocked:  color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF},
			Text:       color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF7, A: 0xFF},
			HitArea:    color.NRGBA{R: 0xFF, G: 0x9F, B: 0x0A, A: 0xC0},
		},
		Metrics: Metrics{
			CornerRadius: 6,
			KeyGap:       2,
			FontSize:     unit.Sp(18),
		},
	}
}

// KeyColor returns the fill for a key in state s.
func (t *Theme) KeyColor(s KeyState) color.NRGBA {
	switch s {
	case KeyPressed:
		return t.Palette.KeyPressed
	case KeyActive:
		return t.Palette.KeyActive
	case KeyLocked:
		return t.Palette.KeyLocked
	default:
		return t.Palette.Key
	}
}
