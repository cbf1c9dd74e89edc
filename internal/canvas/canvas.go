package canvas

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"slides/internal/domain"
	"slides/internal/geometry"

	"github.com/google/uuid"
)

// Canvas is the headless object graph of one slide. It is not safe for concurrent
// use; the editor serializes all access.
type Canvas struct {
	Width      float64
	Height     float64
	Zoom       float64
	Background domain.Background

	objects   []*Object
	selection []string
}

// New returns an empty canvas at the given reference size.
func New(width, height, zoom float64) *Canvas {
	if zoom <= 0 {
		zoom = 1
	}
	return &Canvas{Width: width, Height: height, Zoom: zoom}
}

func (c *Canvas) Size() geometry.Size { return geometry.Size{Width: c.Width, Height: c.Height} }

// Objects returns the top-level objects, bottom to top.
func (c *Canvas) Objects() []*Object {
	return slices.Clone(c.objects)
}

func (c *Canvas) Len() int { return len(c.objects) }

// Add places o on top of the stack.
func (c *Canvas) Add(o *Object) {
	c.objects = append(c.objects, o)
}

// Remove takes o off the canvas and out of the selection.
func (c *Canvas) Remove(o *Object) bool {
	i := c.IndexOf(o)
	if i < 0 {
		return false
	}
	c.objects = slices.Delete(c.objects, i, i+1)
	c.selection = slices.DeleteFunc(c.selection, func(id string) bool { return id == o.ID })
	return true
}

// Clear removes every object and the selection; the background stays.
func (c *Canvas) Clear() {
	c.objects = nil
	c.selection = nil
}

func (c *Canvas) IndexOf(o *Object) int {
	return slices.Index(c.objects, o)
}

// Find returns the object with id, searching inside groups.
func (c *Canvas) Find(id string) *Object {
	var found *Object
	for _, o := range c.objects {
		o.Walk(func(x *Object) {
			if found == nil && x.ID == id {
				found = x
			}
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// TopLevel returns the top-level object containing id (the object itself or its group).
func (c *Canvas) TopLevel(id string) *Object {
	for _, o := range c.objects {
		hit := false
		o.Walk(func(x *Object) {
			if x.ID == id {
				hit = true
			}
		})
		if hit {
			return o
		}
	}
	return nil
}

// ── Selection ──────────────────────────────────────────────

// SetActive replaces the selection. Objects not on the canvas are ignored.
func (c *Canvas) SetActive(objs ...*Object) {
	c.discardEditing()
	c.selection = c.selection[:0]
	for _, o := range objs {
		if o != nil && c.IndexOf(o) >= 0 {
			c.selection = append(c.selection, o.ID)
		}
	}
}

// Discard clears the selection.
func (c *Canvas) Discard() {
	c.discardEditing()
	c.selection = nil
}

func (c *Canvas) discardEditing() {
	for _, id := range c.selection {
		if o := c.Find(id); o != nil && o.Editing {
			o.ExitEditing()
		}
	}
}

// Active returns the selected objects in stacking order.
func (c *Canvas) Active() []*Object {
	var out []*Object
	for _, o := range c.objects {
		if slices.Contains(c.selection, o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// ActiveObject returns the single selected object, or nil for none or a multi-selection.
func (c *Canvas) ActiveObject() *Object {
	if len(c.selection) != 1 {
		return nil
	}
	return c.Find(c.selection[0])
}

// ── Z-order ────────────────────────────────────────────────

func (c *Canvas) move(o *Object, to int) bool {
	from := c.IndexOf(o)
	if from < 0 {
		return false
	}
	to = max(0, min(to, len(c.objects)-1))
	if from == to {
		return false
	}
	c.objects = slices.Delete(c.objects, from, from+1)
	c.objects = slices.Insert(c.objects, to, o)
	return true
}

func (c *Canvas) BringToFront(o *Object) bool  { return c.move(o, len(c.objects)-1) }
func (c *Canvas) BringForward(o *Object) bool  { return c.move(o, c.IndexOf(o)+1) }
func (c *Canvas) SendBackwards(o *Object) bool { return c.move(o, c.IndexOf(o)-1) }
func (c *Canvas) SendToBack(o *Object) bool    { return c.move(o, 0) }

// ── Grouping ───────────────────────────────────────────────

// Group replaces objs with one group at the topmost member's stack position.
// It returns nil when fewer than two objects are on the canvas.
func (c *Canvas) Group(objs []*Object) *Object {
	var members []*Object
	top := -1
	for _, o := range c.objects {
		if slices.Contains(objs, o) {
			members = append(members, o)
			top = max(top, c.IndexOf(o))
		}
	}
	if len(members) < 2 {
		return nil
	}
	g := &Object{ID: uuid.NewString(), Kind: KindGroup, ScaleX: 1, ScaleY: 1, Opacity: 1, Objects: members}
	g.fitChildren()

	pos := top - (len(members) - 1)
	c.objects = slices.DeleteFunc(c.objects, func(o *Object) bool { return slices.Contains(members, o) })
	c.objects = slices.Insert(c.objects, pos, g)
	c.SetActive(g)
	return g
}

// Ungroup puts a group's children back in its place and selects them.
func (c *Canvas) Ungroup(g *Object) []*Object {
	if !g.IsGroup() {
		return nil
	}
	i := c.IndexOf(g)
	if i < 0 {
		return nil
	}
	children := g.Objects
	c.objects = slices.Delete(c.objects, i, i+1)
	c.objects = slices.Insert(c.objects, i, children...)
	c.selection = nil
	for _, ch := range children {
		c.selection = append(c.selection, ch.ID)
	}
	return children
}

func (g *Object) fitChildren() {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, ch := range g.Objects {
		b := ch.Bounds()
		minX, minY = min(minX, b.X), min(minY, b.Y)
		maxX, maxY = max(maxX, b.X+b.Width), max(maxY, b.Y+b.Height)
	}
	g.Left, g.Top = minX, minY
	g.Width, g.Height = maxX-minX, maxY-minY
}

// ── Snapshots ──────────────────────────────────────────────

type snapshot struct {
	Background domain.Background `json:"background"`
	Objects    []*Object         `json:"objects"`
}

// Snapshot serializes the full canvas. Selection and edit state are not included.
func (c *Canvas) Snapshot() ([]byte, error) {
	objs := c.objects
	if objs == nil {
		objs = []*Object{}
	}
	data, err := json.Marshal(snapshot{Background: c.Background, Objects: objs})
	if err != nil {
		return nil, fmt.Errorf("marshal canvas snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the canvas contents with a snapshot and clears the selection.
func (c *Canvas) Restore(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal canvas snapshot: %w", err)
	}
	c.Background = s.Background
	c.objects = s.Objects
	c.selection = nil
	return nil
}

// CenterObject aligns o on the canvas: "center-h", "center-v" or "center-both".
func (c *Canvas) CenterObject(o *Object, mode string) bool {
	b := o.Bounds()
	left, top := o.Left, o.Top
	switch mode {
	case "center-h":
		left = (c.Width - b.Width) / 2
	case "center-v":
		top = (c.Height - b.Height) / 2
	case "center-both":
		left, top = (c.Width-b.Width)/2, (c.Height-b.Height)/2
	default:
		return false
	}
	o.MoveTo(left, top)
	return true
}
