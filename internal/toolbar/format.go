package toolbar

import (
	"cmp"
	"context"
	"log"
	"slices"

	"slides/internal/canvas"
	"slides/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Text formatting
// ─────────────────────────────────────────────────────────────

// Text commands act on the active textbox along two paths. With an editing range
// the override lands on the runes in the range. Otherwise the run default changes
// and every per-rune override of that property is stripped, so the whole box
// becomes uniform.

func (t *Toolbar) applyText(label, prop string, ranged func(o *canvas.Object) domain.StyleOverride, whole func(s *domain.TextStyle)) bool {
	ok := t.surface.Update(label, func(c *canvas.Canvas) []*canvas.Object {
		o := c.ActiveObject()
		if !o.IsText() {
			return nil
		}
		if o.HasTextSelection() {
			o.SetSelectionStyles(ranged(o), o.SelectionStart, o.SelectionEnd)
		} else {
			s := o.Style
			whole(&s)
			o.SetDefaultStyle(s)
			o.RemoveStyleProperty(prop)
		}
		return []*canvas.Object{o}
	})
	if ok {
		t.EmitFormatState()
	}
	return ok
}

// only returns an override carrying prop from s and nothing else.
func only(prop string, s domain.TextStyle) domain.StyleOverride {
	var ov domain.StyleOverride
	switch prop {
	case "fontFamily":
		ov.FontFamily = &s.FontFamily
	case "fontSize":
		ov.FontSize = &s.FontSize
	case "fontWeight":
		ov.FontWeight = &s.FontWeight
	case "fontStyle":
		ov.FontStyle = &s.FontStyle
	case "underline":
		ov.Underline = &s.Underline
	case "fill":
		ov.Fill = &s.Fill
	}
	return ov
}

type toggle struct {
	prop string
	has  func(domain.TextStyle) bool
	set  func(s *domain.TextStyle, on bool)
}

var toggles = map[string]toggle{
	"bold": {
		prop: "fontWeight",
		has:  domain.TextStyle.Bold,
		set: func(s *domain.TextStyle, on bool) {
			s.FontWeight = "normal"
			if on {
				s.FontWeight = "bold"
			}
		},
	},
	"italic": {
		prop: "fontStyle",
		has:  domain.TextStyle.Italic,
		set: func(s *domain.TextStyle, on bool) {
			s.FontStyle = "normal"
			if on {
				s.FontStyle = "italic"
			}
		},
	},
	"underline": {
		prop: "underline",
		has:  func(s domain.TextStyle) bool { return s.Underline },
		set:  func(s *domain.TextStyle, on bool) { s.Underline = on },
	},
}

// ToggleStyle flips bold, italic or underline. On a range the style is switched
// on unless every rune already has it, in which case it is switched off.
func (t *Toolbar) ToggleStyle(style string) bool {
	tg, ok := toggles[style]
	if !ok {
		return false
	}
	return t.applyText("style", tg.prop,
		func(o *canvas.Object) domain.StyleOverride {
			all := true
			for _, s := range o.SelectionStyles(o.SelectionStart, o.SelectionEnd) {
				if !tg.has(s) {
					all = false
					break
				}
			}
			var s domain.TextStyle
			tg.set(&s, !all)
			return only(tg.prop, s)
		},
		func(s *domain.TextStyle) { tg.set(s, !tg.has(*s)) },
	)
}

// SetFontSize sets the size in canvas pixels.
func (t *Toolbar) SetFontSize(px float64) bool {
	if !ValidFontSize(px) {
		log.Printf("[Toolbar] font size %v out of range", px)
		return false
	}
	return t.applyText("font-size", "fontSize",
		func(*canvas.Object) domain.StyleOverride { return only("fontSize", domain.TextStyle{FontSize: px}) },
		func(s *domain.TextStyle) { s.FontSize = px },
	)
}

func (t *Toolbar) SetFontFamily(family string) bool {
	if !ValidFontFamily(family) {
		log.Printf("[Toolbar] unknown font family %q", family)
		return false
	}
	return t.applyText("font-family", "fontFamily",
		func(*canvas.Object) domain.StyleOverride { return only("fontFamily", domain.TextStyle{FontFamily: family}) },
		func(s *domain.TextStyle) { s.FontFamily = family },
	)
}

func (t *Toolbar) SetColor(color string) bool {
	if !domain.ValidColor(color) {
		log.Printf("[Toolbar] invalid color %q", color)
		return false
	}
	return t.applyText("color", "fill",
		func(*canvas.Object) domain.StyleOverride { return only("fill", domain.TextStyle{Fill: color}) },
		func(s *domain.TextStyle) { s.Fill = color },
	)
}

// SetAlign sets the paragraph alignment of the whole textbox.
func (t *Toolbar) SetAlign(align string) bool {
	if !domain.ValidAlign(align) {
		return false
	}
	ok := t.surface.Update("align", func(c *canvas.Canvas) []*canvas.Object {
		o := c.ActiveObject()
		if !o.IsText() || o.TextAlign == align {
			return nil
		}
		o.TextAlign = align
		return []*canvas.Object{o}
	})
	if ok {
		t.EmitFormatState()
	}
	return ok
}

// SetTextTransform rewrites the case of an editing range, or sets the display
// transform of the whole textbox.
func (t *Toolbar) SetTextTransform(transform string) bool {
	if !slices.Contains(transforms, transform) {
		return false
	}
	ok := t.surface.Update("text-transform", func(c *canvas.Canvas) []*canvas.Object {
		o := c.ActiveObject()
		if !o.IsText() {
			return nil
		}
		if o.HasTextSelection() {
			before := o.Text
			o.TransformRange(transform, o.SelectionStart, o.SelectionEnd)
			if o.Text == before {
				return nil
			}
			return []*canvas.Object{o}
		}
		if o.TextTransform == transform {
			return nil
		}
		o.TextTransform = transform
		return []*canvas.Object{o}
	})
	if ok {
		t.EmitFormatState()
	}
	return ok
}

// ── Format state ───────────────────────────────────────────

// FormatState reports what the toolbar buttons should show for the active
// textbox. Flags are AND-reduced over the editing range, or over the default and
// every rune when nothing is selected. Mixed family or size reads as empty.
func (t *Toolbar) FormatState() domain.FormatState {
	st := domain.FormatState{Alignment: "left"}
	t.surface.Inspect(func(c *canvas.Canvas) {
		o := c.ActiveObject()
		if !o.IsText() {
			return
		}
		var styles []domain.TextStyle
		if o.HasTextSelection() {
			styles = o.SelectionStyles(o.SelectionStart, o.SelectionEnd)
		} else {
			styles = append([]domain.TextStyle{o.Style}, o.SelectionStyles(0, o.RuneLen())...)
		}
		st = reduce(styles)
		st.Alignment = cmp.Or(o.TextAlign, "left")
		st.TextTransform = cmp.Or(o.TextTransform, canvas.TransformNone)
	})
	return st
}

func reduce(styles []domain.TextStyle) domain.FormatState {
	if len(styles) == 0 {
		return domain.FormatState{}
	}
	first := styles[0]
	st := domain.FormatState{Bold: true, Italic: true, Underline: true, FontFamily: first.FontFamily, FontSize: first.FontSize}
	for _, s := range styles {
		st.Bold = st.Bold && s.Bold()
		st.Italic = st.Italic && s.Italic()
		st.Underline = st.Underline && s.Underline
		if s.FontFamily != first.FontFamily {
			st.FontFamily = ""
		}
		if s.FontSize != first.FontSize {
			st.FontSize = 0
		}
	}
	return st
}

// EmitFormatState broadcasts the current format state.
func (t *Toolbar) EmitFormatState() {
	if t.emitter == nil {
		return
	}
	t.emitter.Emit(context.Background(), domain.EventFormatChange, t.FormatState())
}
