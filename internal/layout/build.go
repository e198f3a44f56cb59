package layout

import (
	"fmt"
	"sort"
	"strings"

	"osk/internal/action"
	"osk/internal/keymap"
)

const (
	// FallbackView replaces view targets that the layout does not declare.
	FallbackView = "base"
	// DefaultOutline is used by buttons without a valid outline.
	DefaultOutline = "default"
)

// Label is what a button shows: Text, or the named Icon when Icon is set.
type Label struct {
	Text string
	Icon string
}

// Size is a width and height in layout units.
type Size struct {
	Width  float64
	Height float64
}

// KeyButton is one placed instance of a button id.
type KeyButton struct {
	Name        string
	Label       Label
	Size        Size
	OutlineName string
	Action      action.Action
	// Keycodes are the codes submitted on activation, in order.
	Keycodes []keymap.KeyCode
}

// Row is a horizontal line of buttons.
type Row struct {
	Buttons []*KeyButton
}

// View is one page of the keyboard.
type View struct {
	Rows []Row
}

// ParsedLayout is the compiled form of a Layout. It is immutable once built.
type ParsedLayout struct {
	Margins  Margins
	Views    map[string]*View
	Keycodes map[string]keymap.KeyCode
	// Keymaps holds one XKB keymap per bin.
	Keymaps     []string
	Diagnostics []Diagnostic
}

// HasView reports whether the layout declares name.
func (p *ParsedLayout) HasView(name string) bool {
	_, ok := p.Views[name]
	return ok
}

// Keycode returns the keycode assigned to keysym.
func (p *ParsedLayout) Keycode(keysym string) (keymap.KeyCode, bool) {
	kc, ok := p.Keycodes[keysym]
	return kc, ok
}

// Build compiles l. It never fails: references that do not resolve are
// replaced by fallbacks and reported in Diagnostics. Build does not modify l
// and returns identical results for identical input.
func (l *Layout) Build() *ParsedLayout {
	b := &builder{layout: l}

	ids := l.buttonIDs()
	actions := make(map[string]action.Action, len(ids))
	var symbols []string
	for _, id := range ids {
		a := b.createAction(id)
		actions[id] = a
		for _, sym := range action.Symbols(a) {
			symbols = append(symbols, string(sym))
		}
	}

	codes := keymap.GenerateKeycodes(symbols)

	viewNames := l.viewNames()
	views := make(map[string]*View, len(viewNames))
	for _, name := range viewNames {
		view := &View{}
		for _, spec := range l.Views[name] {
			var row Row
			for _, id := range strings.Fields(spec) {
				btn := b.createButton(id, actions[id])
				for _, sym := range action.Symbols(btn.Action) {
					btn.Keycodes = append(btn.Keycodes, codes[string(sym)])
				}
				row.Buttons = append(row.Buttons, btn)
			}
			view.Rows = append(view.Rows, row)
		}
		views[name] = view
	}

	return &ParsedLayout{
		Margins:     l.Margins,
		Views:       views,
		Keycodes:    codes,
		Keymaps:     keymap.GenerateKeymaps(codes),
		Diagnostics: b.diags,
	}
}

func (l *Layout) viewNames() []string {
	names := make([]string, 0, len(l.Views))
	for name := range l.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buttonIDs returns every distinct button id referenced by any view, sorted.
func (l *Layout) buttonIDs() []string {
	seen := make(map[string]struct{})
	for _, rows := range l.Views {
		for _, row := range rows {
			for _, id := range strings.Fields(row) {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type builder struct {
	layout *Layout
	diags  []Diagnostic
	// reported dedupes diagnostics for buttons placed in several views.
	reported map[string]bool
}

func (b *builder) report(d Diagnostic) {
	key := fmt.Sprintf("%d/%s/%s/%s/%s", d.Kind, d.Button, d.View, d.Keysym, d.Outline)
	if b.reported == nil {
		b.reported = make(map[string]bool)
	}
	if b.reported[key] {
		return
	}
	b.reported[key] = true
	b.diags = append(b.diags, d)
}

func (b *builder) meta(id string) ButtonMeta {
	return b.layout.Buttons[id]
}

func (b *builder) createAction(id string) action.Action {
	meta := b.meta(id)

	var declared []string
	if meta.Action != nil {
		declared = append(declared, "action")
	}
	if meta.Keysym != nil {
		declared = append(declared, "keysym")
	}
	if meta.Text != nil {
		declared = append(declared, "text")
	}
	if meta.Modifier != nil {
		declared = append(declared, "modifier")
	}
	if len(declared) > 1 {
		b.report(Diagnostic{
			Kind:   DiagConflict,
			Button: id,
			Detail: fmt.Sprintf("declares %s; submitting empty text", strings.Join(declared, ", ")),
		})
		return action.SubmitText("")
	}

	switch {
	case meta.Action != nil:
		return b.specialAction(id, meta.Action)
	case meta.Keysym != nil:
		sym := *meta.Keysym
		if !keymap.ValidKeysym(sym) {
			b.report(Diagnostic{Kind: DiagInvalidKeysym, Button: id, Keysym: sym})
			sym = keymap.Placeholder
		}
		return action.Submit{Keys: []action.KeySym{action.KeySym(sym)}}
	case meta.Text != nil:
		return textAction(*meta.Text)
	case meta.Modifier != nil:
		return b.modifierAction(id, *meta.Modifier)
	default:
		return textAction(id)
	}
}

func textAction(text string) action.Submit {
	keys := make([]action.KeySym, 0, len(text))
	for _, r := range text {
		keys = append(keys, action.KeySym(keymap.RuneKeysym(r)))
	}
	return action.SubmitText(text, keys...)
}

func (b *builder) specialAction(id string, spec *ActionSpec) action.Action {
	switch spec.Kind {
	case KindSetView:
		return action.SetView{View: b.viewTarget(id, spec.View)}
	case KindLocking:
		latches := true
		if spec.Locking.Pops != nil {
			latches = *spec.Locking.Pops
		}
		return action.LockView{
			Lock:            b.viewTarget(id, spec.Locking.LockView),
			Unlock:          b.viewTarget(id, spec.Locking.UnlockView),
			Latches:         latches,
			LooksLockedFrom: spec.Locking.LooksLockedFrom,
		}
	case KindShowPrefs:
		return action.ShowPreferences{}
	case KindMinimize:
		return action.Minimize{}
	case KindMaximize:
		return action.Maximize{}
	default:
		return action.Erase{}
	}
}

func (b *builder) viewTarget(id, view string) string {
	if _, ok := b.layout.Views[view]; ok {
		return view
	}
	b.report(Diagnostic{Kind: DiagMissingView, Button: id, View: view})
	return FallbackView
}

func (b *builder) modifierAction(id, name string) action.Action {
	switch name {
	case "Control":
		return action.ApplyModifier{Modifier: action.Control}
	case "Alt", "Mod1":
		return action.ApplyModifier{Modifier: action.Alt}
	case "Mod4":
		return action.ApplyModifier{Modifier: action.Mod4}
	default:
		b.report(Diagnostic{Kind: DiagUnsupportedModifier, Button: id, Detail: name})
		return action.Submit{}
	}
}

func (b *builder) createButton(id string, a action.Action) *KeyButton {
	meta := b.meta(id)

	var label Label
	switch {
	case meta.Label != nil:
		label.Text = *meta.Label
	case meta.Icon != nil:
		label.Icon = *meta.Icon
	case meta.Text != nil:
		label.Text = *meta.Text
	default:
		label.Text = id
	}

	outlineName := DefaultOutline
	if meta.Outline != nil {
		if _, ok := b.layout.Outlines[*meta.Outline]; ok {
			outlineName = *meta.Outline
		} else {
			b.report(Diagnostic{Kind: DiagMissingOutline, Button: id, Outline: *meta.Outline})
		}
	}
	size := Size{Width: 1, Height: 1}
	if o, ok := b.layout.Outlines[outlineName]; ok {
		size = Size{Width: o.Width, Height: o.Height}
	}

	return &KeyButton{
		Name:        id,
		Label:       label,
		Size:        size,
		OutlineName: outlineName,
		Action:      a,
	}
}
