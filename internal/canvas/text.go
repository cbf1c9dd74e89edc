package canvas

import (
	"math"
	"strings"
	"unicode"

	"slides/internal/domain"
)

const (
	lineHeight     = 1.16
	avgGlyphFactor = 0.5
)

// Text transform values.
const (
	TransformNone       = "none"
	TransformUppercase  = "uppercase"
	TransformLowercase  = "lowercase"
	TransformCapitalize = "capitalize"
)

// NewTextbox returns a fixed-width textbox; its height follows the text.
func NewTextbox(text string, left, top, width float64, style domain.TextStyle) *Object {
	o := newObject(KindTextbox)
	o.Text = text
	o.Left, o.Top, o.Width = left, top, width
	o.Style = style
	o.TextAlign = "left"
	o.LayoutText()
	return o
}

// bakeScale folds scale factors into Width and every font size, leaving scale 1.
// Height follows from the new layout.
func (o *Object) bakeScale(sx, sy float64) {
	o.Width *= sx
	o.Style.FontSize *= sy
	for i, ov := range o.CharStyles {
		if ov.FontSize != nil {
			size := *ov.FontSize * sy
			ov.FontSize = &size
			o.CharStyles[i] = ov
		}
	}
	o.ScaleX, o.ScaleY = 1, 1
	o.LayoutText()
}

func (o *Object) RuneLen() int { return len([]rune(o.Text)) }

// LayoutText recomputes Height from the text, the widest font size in use and Width.
func (o *Object) LayoutText() {
	if !o.IsText() {
		return
	}
	size := o.Style.FontSize
	for _, ov := range o.CharStyles {
		if ov.FontSize != nil && *ov.FontSize > size {
			size = *ov.FontSize
		}
	}
	lines := 0
	for _, para := range strings.Split(o.Text, "\n") {
		lines += wrappedLines(len([]rune(para)), size, o.Width)
	}
	o.Height = float64(lines) * size * lineHeight
}

func wrappedLines(chars int, fontSize, width float64) int {
	if chars == 0 || width <= 0 || fontSize <= 0 {
		return 1
	}
	perLine := math.Max(1, math.Floor(width/(fontSize*avgGlyphFactor)))
	return int(math.Ceil(float64(chars) / perLine))
}

// StyleAt returns the effective style of rune i.
func (o *Object) StyleAt(i int) domain.TextStyle {
	if ov, ok := o.CharStyles[i]; ok {
		return ov.Apply(o.Style)
	}
	return o.Style
}

// SelectionStyles returns the effective style of each rune in [start, end).
func (o *Object) SelectionStyles(start, end int) []domain.TextStyle {
	start, end = o.clampRange(start, end)
	out := make([]domain.TextStyle, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, o.StyleAt(i))
	}
	return out
}

// SetSelectionStyles layers the set fields of ov over every rune in [start, end).
func (o *Object) SetSelectionStyles(ov domain.StyleOverride, start, end int) {
	start, end = o.clampRange(start, end)
	if start >= end {
		return
	}
	if o.CharStyles == nil {
		o.CharStyles = make(map[int]domain.StyleOverride)
	}
	for i := start; i < end; i++ {
		eff := ov.Apply(o.StyleAt(i))
		o.setCharStyle(i, domain.Diff(o.Style, eff))
	}
	o.LayoutText()
}

func (o *Object) setCharStyle(i int, ov domain.StyleOverride) {
	if ov.IsEmpty() {
		delete(o.CharStyles, i)
		return
	}
	o.CharStyles[i] = ov
}

// RemoveStyleProperty strips one property from every per-rune override so the
// default takes effect uniformly.
func (o *Object) RemoveStyleProperty(prop string) {
	for i, ov := range o.CharStyles {
		switch prop {
		case "fontFamily":
			ov.FontFamily = nil
		case "fontSize":
			ov.FontSize = nil
		case "fontWeight":
			ov.FontWeight = nil
		case "fontStyle":
			ov.FontStyle = nil
		case "underline":
			ov.Underline = nil
		case "fill":
			ov.Fill = nil
		}
		o.setCharStyle(i, ov)
	}
	o.normalizeStyles()
	o.LayoutText()
}

// normalizeStyles drops override fields that equal the current default.
func (o *Object) normalizeStyles() {
	for i, ov := range o.CharStyles {
		o.setCharStyle(i, domain.Diff(o.Style, ov.Apply(o.Style)))
	}
}

// SetDefaultStyle replaces the run default, keeping per-rune effective styles unchanged
// for properties other than the ones the caller strips afterwards.
func (o *Object) SetDefaultStyle(s domain.TextStyle) {
	effective := make(map[int]domain.TextStyle, len(o.CharStyles))
	for i := range o.CharStyles {
		effective[i] = o.StyleAt(i)
	}
	o.Style = s
	for i, eff := range effective {
		o.setCharStyle(i, domain.Diff(s, eff))
	}
	o.LayoutText()
}

// SetText replaces the text; overrides past the new end are dropped.
func (o *Object) SetText(text string) {
	o.Text = text
	n := o.RuneLen()
	for i := range o.CharStyles {
		if i >= n {
			delete(o.CharStyles, i)
		}
	}
	o.SelectionStart, o.SelectionEnd = o.clampRange(o.SelectionStart, o.SelectionEnd)
	o.LayoutText()
}

// TransformRange rewrites the case of the runes in [start, end) without changing the rune count.
func (o *Object) TransformRange(transform string, start, end int) {
	start, end = o.clampRange(start, end)
	runes := []rune(o.Text)
	for i := start; i < end; i++ {
		switch transform {
		case TransformUppercase:
			runes[i] = unicode.ToUpper(runes[i])
		case TransformLowercase:
			runes[i] = unicode.ToLower(runes[i])
		case TransformCapitalize:
			if i == 0 || unicode.IsSpace(runes[i-1]) {
				runes[i] = unicode.ToUpper(runes[i])
			}
		}
	}
	o.Text = string(runes)
}

// EnterEditing puts a textbox in edit mode with the given selection.
func (o *Object) EnterEditing(start, end int) {
	if !o.IsText() {
		return
	}
	o.Editing = true
	o.SelectionStart, o.SelectionEnd = o.clampRange(start, end)
}

func (o *Object) ExitEditing() {
	o.Editing = false
	o.SelectionStart, o.SelectionEnd = 0, 0
}

// HasTextSelection reports whether the textbox is editing with a non-empty range.
func (o *Object) HasTextSelection() bool {
	return o.IsText() && o.Editing && o.SelectionStart < o.SelectionEnd
}

func (o *Object) clampRange(start, end int) (int, int) {
	n := o.RuneLen()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return start, end
}
