package canvas

import (
	"encoding/json"

	"slides/internal/domain"
	"slides/internal/geometry"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTextbox  Kind = "textbox"
	KindImage    Kind = "image"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
	KindTriangle Kind = "triangle"
	KindArrow    Kind = "path"
	KindGroup    Kind = "group"
)

// Object is one live, mutable item on the editing surface. Coordinates are unzoomed
// canvas pixels; Width/Height are intrinsic and ScaleX/ScaleY give the rendered size.
type Object struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"type"`
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Angle       float64 `json:"angle"`
	Opacity     float64 `json:"opacity"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Path        string  `json:"path,omitempty"`

	// Textbox. Style is the run default, fill included; FontSize is in pixels.
	Text          string                       `json:"text,omitempty"`
	Style         domain.TextStyle             `json:"style,omitzero"`
	TextAlign     string                       `json:"textAlign,omitempty"`
	TextTransform string                       `json:"textTransform,omitempty"`
	CharStyles    map[int]domain.StyleOverride `json:"styles,omitempty"`

	// Image. Width/Height hold the natural size.
	Src string `json:"src,omitempty"`

	Objects []*Object `json:"objects,omitempty"`

	DisplayOrder           int      `json:"displayOrder"`
	EntryAnimation         *string  `json:"entryAnimation,omitempty"`
	EntryAnimationDuration *float64 `json:"entryAnimationDuration,omitempty"`
	EntryAnimationDelay    *float64 `json:"entryAnimationDelay,omitempty"`
	ExitAnimation          *string  `json:"exitAnimation,omitempty"`
	ExitAnimationDuration  *float64 `json:"exitAnimationDuration,omitempty"`
	ExitAnimationDelay     *float64 `json:"exitAnimationDelay,omitempty"`

	// Transient edit state, never snapshotted.
	Editing        bool `json:"-"`
	SelectionStart int  `json:"-"`
	SelectionEnd   int  `json:"-"`
}

func newObject(kind Kind) *Object {
	return &Object{
		ID:      uuid.NewString(),
		Kind:    kind,
		ScaleX:  1,
		ScaleY:  1,
		Opacity: 1,
	}
}

// NewRect returns a rectangle with its top-left at (left, top).
func NewRect(left, top, width, height float64, fill string) *Object {
	o := newObject(KindRect)
	o.Left, o.Top, o.Width, o.Height, o.Fill = left, top, width, height, fill
	return o
}

func NewCircle(left, top, radius float64, fill string) *Object {
	o := newObject(KindCircle)
	o.Left, o.Top, o.Width, o.Height, o.Fill = left, top, radius*2, radius*2, fill
	return o
}

func NewTriangle(left, top, width, height float64, fill string) *Object {
	o := newObject(KindTriangle)
	o.Left, o.Top, o.Width, o.Height, o.Fill = left, top, width, height, fill
	return o
}

// NewArrow returns a stroked arrow path; Width/Height are the path's bounding box.
func NewArrow(left, top float64, path, stroke string, strokeWidth float64) *Object {
	o := newObject(KindArrow)
	o.Left, o.Top, o.Path, o.Stroke, o.StrokeWidth = left, top, path, stroke, strokeWidth
	o.Width, o.Height = 100, 20
	return o
}

func NewImage(src string, left, top, naturalWidth, naturalHeight, scale float64) *Object {
	o := newObject(KindImage)
	o.Src = src
	o.Left, o.Top = left, top
	o.Width, o.Height = naturalWidth, naturalHeight
	o.ScaleX, o.ScaleY = scale, scale
	return o
}

func (o *Object) IsText() bool  { return o != nil && o.Kind == KindTextbox }
func (o *Object) IsImage() bool { return o != nil && o.Kind == KindImage }
func (o *Object) IsGroup() bool { return o != nil && o.Kind == KindGroup }

func (o *Object) ScaledWidth() float64  { return o.Width * o.ScaleX }
func (o *Object) ScaledHeight() float64 { return o.Height * o.ScaleY }

// Bounds is the unrotated rendered box in canvas pixels.
func (o *Object) Bounds() geometry.Rect {
	return geometry.Rect{X: o.Left, Y: o.Top, Width: o.ScaledWidth(), Height: o.ScaledHeight()}
}

// MoveTo repositions the object; group children move with it.
func (o *Object) MoveTo(left, top float64) {
	dx, dy := left-o.Left, top-o.Top
	o.Left, o.Top = left, top
	for _, c := range o.Objects {
		c.MoveTo(c.Left+dx, c.Top+dy)
	}
}

// Clone returns a deep copy with the same ID.
func (o *Object) Clone() *Object {
	data, err := json.Marshal(o)
	if err != nil {
		return nil
	}
	var c Object
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	c.Editing, c.SelectionStart, c.SelectionEnd = o.Editing, o.SelectionStart, o.SelectionEnd
	return &c
}

// Walk visits o and, for groups, every descendant.
func (o *Object) Walk(fn func(*Object)) {
	fn(o)
	for _, c := range o.Objects {
		c.Walk(fn)
	}
}

// ScaleBy multiplies the scale; group children scale about the group's origin.
// Textboxes take the factors into their width and font sizes instead.
func (o *Object) ScaleBy(fx, fy float64) {
	for _, c := range o.Objects {
		c.MoveTo(o.Left+(c.Left-o.Left)*fx, o.Top+(c.Top-o.Top)*fy)
		c.ScaleBy(fx, fy)
	}
	if o.IsText() {
		o.bakeScale(o.ScaleX*fx, o.ScaleY*fy)
		return
	}
	o.ScaleX *= fx
	o.ScaleY *= fy
}
