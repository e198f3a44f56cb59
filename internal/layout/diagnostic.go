package layout

import "fmt"

// DiagKind classifies a non-fatal problem found while building a layout.
type DiagKind int

const (
	DiagMissingView DiagKind = iota
	DiagMissingOutline
	DiagInvalidKeysym
	DiagConflict
	DiagUnsupportedModifier
)

func (k DiagKind) String() string {
	switch k {
	case DiagMissingView:
		return "missing_view"
	case DiagMissingOutline:
		return "missing_outline"
	case DiagInvalidKeysym:
		return "invalid_keysym"
	case DiagConflict:
		return "conflict"
	case DiagUnsupportedModifier:
		return "unsupported_modifier"
	default:
		return fmt.Sprintf("DiagKind(%d)", int(k))
	}
}

// Diagnostic reports a reference that did not resolve and the fallback used.
type Diagnostic struct {
	Kind    DiagKind
	Button  string
	View    string
	Keysym  string
	Outline string
	Detail  string
}

func (d Diagnostic) Error() string {
	switch d.Kind {
	case DiagMissingView:
		return fmt.Sprintf("button %s switches to missing view %s, using %s", d.Button, d.View, FallbackView)
	case DiagMissingOutline:
		return fmt.Sprintf("button %s uses missing outline %s, using %s", d.Button, d.Outline, DefaultOutline)
	case DiagInvalidKeysym:
		return fmt.Sprintf("button %s has invalid keysym %s", d.Button, d.Keysym)
	case DiagConflict:
		return fmt.Sprintf("button %s %s", d.Button, d.Detail)
	case DiagUnsupportedModifier:
		return fmt.Sprintf("button %s uses unsupported modifier %s", d.Button, d.Detail)
	default:
		return fmt.Sprintf("button %s: %s", d.Button, d.Kind)
	}
}

// Attrs returns the diagnostic as structured logging attributes.
func (d Diagnostic) Attrs() []any {
	attrs := []any{"kind", d.Kind.String(), "button", d.Button}
	if d.View != "" {
		attrs = append(attrs, "view", d.View)
	}
	if d.Keysym != "" {
		attrs = append(attrs, "keysym", d.Keysym)
	}
	if d.Outline != "" {
		attrs = append(attrs, "outline", d.Outline)
	}
	return attrs
}
