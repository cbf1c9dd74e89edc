package geometry

// Reference canvas the persisted percentages are defined against.
const (
	ReferenceWidth     = 812.0
	ReferenceHeight    = 460.0
	FontReferenceWidth = 812.0
	defaultZoom        = 1.0
)

// ToPercent converts an unzoomed pixel value to percent of ref.
func ToPercent(px, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return px / ref * 100
}

// ToPixel converts a percent of ref back to pixels.
func ToPixel(pct, ref float64) float64 {
	return pct / 100 * ref
}

// PercentFromObserved divides out zoom before normalizing.
func PercentFromObserved(observed, ref, zoom float64) float64 {
	if zoom <= 0 {
		zoom = defaultZoom
	}
	return ToPercent(observed/zoom, ref)
}

// ObservedFromPercent is the inverse of PercentFromObserved.
func ObservedFromPercent(pct, ref, zoom float64) float64 {
	if zoom <= 0 {
		zoom = defaultZoom
	}
	return ToPixel(pct, ref) * zoom
}

// FontToPercent normalizes a font size against the fixed font reference width.
func FontToPercent(px, fontRef float64) float64 {
	return ToPercent(px, fontRef)
}

// FontFromPercent is the inverse of FontToPercent.
func FontFromPercent(pct, fontRef float64) float64 {
	return ToPixel(pct, fontRef)
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned box, top-left anchored.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Normalizer carries the reference dimensions and zoom of one canvas.
type Normalizer struct {
	Ref     Size
	FontRef float64
	Zoom    float64
}

// Default returns a normalizer for the 812x460 reference canvas at zoom 1.
func Default() Normalizer {
	return Normalizer{
		Ref:     Size{Width: ReferenceWidth, Height: ReferenceHeight},
		FontRef: FontReferenceWidth,
		Zoom:    defaultZoom,
	}
}

func (n Normalizer) fontRef() float64 {
	if n.FontRef <= 0 {
		return FontReferenceWidth
	}
	return n.FontRef
}

// RectToPercent converts a pixel box in unzoomed canvas space to percent.
func (n Normalizer) RectToPercent(r Rect) Rect {
	return Rect{
		X:      ToPercent(r.X, n.Ref.Width),
		Y:      ToPercent(r.Y, n.Ref.Height),
		Width:  ToPercent(r.Width, n.Ref.Width),
		Height: ToPercent(r.Height, n.Ref.Height),
	}
}

// RectToPixel converts a percent box to unzoomed canvas pixels.
func (n Normalizer) RectToPixel(r Rect) Rect {
	return Rect{
		X:      ToPixel(r.X, n.Ref.Width),
		Y:      ToPixel(r.Y, n.Ref.Height),
		Width:  ToPixel(r.Width, n.Ref.Width),
		Height: ToPixel(r.Height, n.Ref.Height),
	}
}

// ObservedRectToPercent converts a box measured on the zoomed surface to percent.
func (n Normalizer) ObservedRectToPercent(r Rect) Rect {
	return Rect{
		X:      PercentFromObserved(r.X, n.Ref.Width, n.Zoom),
		Y:      PercentFromObserved(r.Y, n.Ref.Height, n.Zoom),
		Width:  PercentFromObserved(r.Width, n.Ref.Width, n.Zoom),
		Height: PercentFromObserved(r.Height, n.Ref.Height, n.Zoom),
	}
}

func (n Normalizer) FontToPercent(px float64) float64 { return FontToPercent(px, n.fontRef()) }

func (n Normalizer) FontFromPercent(pct float64) float64 { return FontFromPercent(pct, n.fontRef()) }

// FitScale is the uniform factor that fits ref inside container without cropping.
func FitScale(container, ref Size) float64 {
	if ref.Width <= 0 || ref.Height <= 0 {
		return 0
	}
	return min(container.Width/ref.Width, container.Height/ref.Height)
}

// CoverScale is the uniform factor that makes an image of size img fill container.
func CoverScale(container, img Size) float64 {
	if img.Width <= 0 || img.Height <= 0 {
		return 0
	}
	return max(container.Width/img.Width, container.Height/img.Height)
}

// ContainRect places an image of size img inside box with "contain" fit, centered.
func ContainRect(box Rect, img Size) Rect {
	s := FitScale(Size{Width: box.Width, Height: box.Height}, img)
	if s == 0 {
		return box
	}
	w, h := img.Width*s, img.Height*s
	return Rect{X: box.X + (box.Width-w)/2, Y: box.Y + (box.Height-h)/2, Width: w, Height: h}
}

// DropScale fits a dropped image inside half the canvas, never upscaling and never above 0.5.
func DropScale(canvas, img Size) float64 {
	if img.Width <= 0 || img.Height <= 0 {
		return 0.5
	}
	return min(1, canvas.Width/(2*img.Width), canvas.Height/(2*img.Height), 0.5)
}
