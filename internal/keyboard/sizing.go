package keyboard

import "osk/internal/protocol"

// Window sizes in layout units.
const (
	FullWidth     = 480
	FullHeight    = 244
	ReducedHeight = 210
	MinimizedW    = 80
	MinimizedH    = 60
)

// Geometry is where and how large the keyboard window should be.
type Geometry struct {
	Size      protocol.Resize
	Placement protocol.ReconfigureAnchor
}

// hidden parks the surface as a 1x1 window on the bottom layer.
var hidden = Geometry{
	Size: protocol.Resize{Width: 1, Height: 1},
	Placement: protocol.ReconfigureAnchor{
		Anchor: protocol.AnchorLeft | protocol.AnchorRight | protocol.AnchorBottom,
		Layer:  protocol.LayerBottom,
	},
}

// PurposeSize returns the full keyboard size for a content purpose. Text
// fields get the tall layout with room for suggestions; everything else
// gets the reduced one.
func PurposeSize(p protocol.ContentPurpose) protocol.Resize {
	switch p {
	case protocol.PurposeNormal, protocol.PurposeAlpha, protocol.PurposeName:
		return protocol.Resize{Width: FullWidth, Height: FullHeight}
	default:
		return protocol.Resize{Width: FullWidth, Height: ReducedHeight}
	}
}

// TargetGeometry computes the window geometry for s.
func TargetGeometry(s *State) Geometry {
	if !s.HasPurpose || !s.Visible {
		return hidden
	}
	if !s.Maximized {
		return Geometry{
			Size: protocol.Resize{Width: MinimizedW, Height: MinimizedH},
			Placement: protocol.ReconfigureAnchor{
				Anchor: protocol.AnchorRight | protocol.AnchorBottom,
				Layer:  protocol.LayerOverlay,
			},
		}
	}
	size := PurposeSize(s.Purpose)
	return Geometry{
		Size: size,
		Placement: protocol.ReconfigureAnchor{
			Anchor:        protocol.AnchorLeft | protocol.AnchorRight | protocol.AnchorBottom,
			Layer:         protocol.LayerOverlay,
			ExclusiveZone: int32(size.Height),
		},
	}
}
