package serializer

import (
	"fmt"

	"slides/internal/canvas"
	"slides/internal/domain"
	"slides/internal/geometry"
)

// ElementType maps a live object to its persisted type. Shapes, arrows and groups
// have no persisted form.
func ElementType(o *canvas.Object) (domain.ElementType, bool) {
	switch {
	case o.IsText():
		return domain.ElementTypeText, true
	case o.IsImage():
		return domain.ElementTypeImage, true
	}
	return "", false
}

// ToPayload converts a live object into the persisted element shape. The rendered
// (scaled) size is what gets normalized. layer is the object's stack position.
func ToPayload(o *canvas.Object, n geometry.Normalizer, layer int) (domain.SlideElement, error) {
	typ, ok := ElementType(o)
	if !ok {
		return domain.SlideElement{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedElement, o.Kind)
	}

	box := n.RectToPercent(o.Bounds())
	el := domain.SlideElement{
		SlideElementType:       typ,
		PositionX:              box.X,
		PositionY:              box.Y,
		Width:                  box.Width,
		Height:                 box.Height,
		Rotation:               o.Angle,
		LayerOrder:             layer,
		DisplayOrder:           o.DisplayOrder,
		EntryAnimation:         o.EntryAnimation,
		EntryAnimationDuration: o.EntryAnimationDuration,
		EntryAnimationDelay:    o.EntryAnimationDelay,
		ExitAnimation:          o.ExitAnimation,
		ExitAnimationDuration:  o.ExitAnimationDuration,
		ExitAnimationDelay:     o.ExitAnimationDelay,
	}

	switch typ {
	case domain.ElementTypeText:
		content, err := EncodeText(o, n).Encode()
		if err != nil {
			return domain.SlideElement{}, err
		}
		el.Content = &content
	case domain.ElementTypeImage:
		src := o.Src
		el.SourceURL = &src
	}
	return el, nil
}

// EncodeText extracts the rich-text document of a textbox with font sizes in percent.
// Sizes are the rendered ones, so a textbox still carrying a vertical scale is
// persisted as it is drawn.
func EncodeText(o *canvas.Object, n geometry.Normalizer) domain.TextContent {
	def := o.Style
	return domain.TextContent{
		Text:          o.Text,
		FontFamily:    def.FontFamily,
		FontSize:      n.FontToPercent(def.FontSize * textScale(o)),
		FontWeight:    def.FontWeight,
		FontStyle:     def.FontStyle,
		Fill:          def.Fill,
		TextAlign:     o.TextAlign,
		Underline:     def.Underline,
		TextTransform: o.TextTransform,
		Styles:        Segments(o, n),
	}
}

// Segments diffs each rune's style against the run default and merges equal neighbours.
// The result is sorted and non-overlapping.
func Segments(o *canvas.Object, n geometry.Normalizer) []domain.StyleSegment {
	segs := []domain.StyleSegment{}
	runes := o.RuneLen()
	for i := 0; i < runes; i++ {
		ov := domain.Diff(o.Style, o.StyleAt(i))
		if ov.IsEmpty() {
			continue
		}
		if ov.FontSize != nil {
			pct := n.FontToPercent(*ov.FontSize * textScale(o))
			ov.FontSize = &pct
		}
		if last := len(segs) - 1; last >= 0 && segs[last].End == i && sameOverride(segs[last].Style, ov) {
			segs[last].End = i + 1
			continue
		}
		segs = append(segs, domain.StyleSegment{Start: i, End: i + 1, Style: ov})
	}
	return segs
}

func textScale(o *canvas.Object) float64 {
	if o.ScaleY <= 0 {
		return 1
	}
	return o.ScaleY
}

// FromPayload rebuilds a live object from a persisted element. Images come back at
// scale 1 with their rendered size until AttachNaturalSize is called.
func FromPayload(el domain.SlideElement, n geometry.Normalizer) (*canvas.Object, error) {
	box := n.RectToPixel(geometry.Rect{X: el.PositionX, Y: el.PositionY, Width: el.Width, Height: el.Height})

	var o *canvas.Object
	switch el.SlideElementType {
	case domain.ElementTypeText:
		if el.Content == nil {
			return nil, domain.ErrInvalidElement
		}
		tc, err := domain.ParseTextContent(*el.Content)
		if err != nil {
			return nil, err
		}
		o = DecodeText(tc, n, box)
	case domain.ElementTypeImage:
		if el.SourceURL == nil || *el.SourceURL == "" {
			return nil, domain.ErrInvalidElement
		}
		o = canvas.NewImage(*el.SourceURL, box.X, box.Y, box.Width, box.Height, 1)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedElement, el.SlideElementType)
	}

	o.Angle = el.Rotation
	o.DisplayOrder = el.DisplayOrder
	o.EntryAnimation = el.EntryAnimation
	o.EntryAnimationDuration = el.EntryAnimationDuration
	o.EntryAnimationDelay = el.EntryAnimationDelay
	o.ExitAnimation = el.ExitAnimation
	o.ExitAnimationDuration = el.ExitAnimationDuration
	o.ExitAnimationDelay = el.ExitAnimationDelay
	return o, nil
}

// DecodeText builds a textbox from a text document placed in box (canvas pixels).
func DecodeText(tc domain.TextContent, n geometry.Normalizer, box geometry.Rect) *canvas.Object {
	style := tc.Default()
	style.FontSize = n.FontFromPercent(tc.FontSize)

	o := canvas.NewTextbox(tc.Text, box.X, box.Y, box.Width, style)
	if tc.TextAlign != "" {
		o.TextAlign = tc.TextAlign
	}
	o.TextTransform = tc.TextTransform
	for _, seg := range tc.Styles {
		ov := seg.Style
		if ov.FontSize != nil {
			px := n.FontFromPercent(*ov.FontSize)
			ov.FontSize = &px
		}
		o.SetSelectionStyles(ov, seg.Start, seg.End)
	}
	return o
}

// AttachNaturalSize records an image's intrinsic size, keeping its rendered box.
func AttachNaturalSize(o *canvas.Object, width, height float64) {
	if !o.IsImage() || width <= 0 || height <= 0 {
		return
	}
	rw, rh := o.ScaledWidth(), o.ScaledHeight()
	o.Width, o.Height = width, height
	o.ScaleX, o.ScaleY = rw/width, rh/height
}

func sameOverride(a, b domain.StyleOverride) bool {
	return eqPtr(a.FontFamily, b.FontFamily) && eqPtr(a.FontSize, b.FontSize) &&
		eqPtr(a.FontWeight, b.FontWeight) && eqPtr(a.FontStyle, b.FontStyle) &&
		eqPtr(a.Underline, b.Underline) && eqPtr(a.Fill, b.Fill)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
