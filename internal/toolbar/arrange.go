package toolbar

import (
	"slices"

	"slides/internal/canvas"
)

// Arrange actions.
const (
	BringToFront  = "bringToFront"
	BringForward  = "bringForward"
	SendBackwards = "sendBackwards"
	SendToBack    = "sendToBack"
)

// Arrange restacks the selection. Several selected objects keep their relative
// order: they are visited top first when moving up one step or to the back, and an
// object never swaps places with another selected one. Every
// top-level object is committed since their layers shift together.
func (t *Toolbar) Arrange(action string) bool {
	return t.surface.Update("arrange", func(c *canvas.Canvas) []*canvas.Object {
		active := c.Active()
		if len(active) == 0 {
			return nil
		}
		var op func(*canvas.Object) bool
		step := 0
		switch action {
		case BringToFront:
			op = c.BringToFront
		case BringForward:
			op, step = c.BringForward, 1
			slices.Reverse(active)
		case SendBackwards:
			op, step = c.SendBackwards, -1
		case SendToBack:
			op = c.SendToBack
			slices.Reverse(active)
		default:
			return nil
		}
		moved := false
		for _, o := range active {
			if step != 0 {
				objs := c.Objects()
				if next := c.IndexOf(o) + step; next >= 0 && next < len(objs) && slices.Contains(active, objs[next]) {
					continue
				}
			}
			if op(o) {
				moved = true
			}
		}
		if !moved {
			return nil
		}
		return c.Objects()
	})
}

// AlignElement centers the selection on the slide: center-h, center-v or center-both.
func (t *Toolbar) AlignElement(mode string) bool {
	return t.surface.Update("align-element", func(c *canvas.Canvas) []*canvas.Object {
		var changed []*canvas.Object
		for _, o := range c.Active() {
			left, top := o.Left, o.Top
			if c.CenterObject(o, mode) && (o.Left != left || o.Top != top) {
				changed = append(changed, o)
			}
		}
		return changed
	})
}

// Group merges a selection of two or more objects into one group.
func (t *Toolbar) Group() bool {
	return t.surface.Update("group", func(c *canvas.Canvas) []*canvas.Object {
		active := c.Active()
		if len(active) < 2 {
			return nil
		}
		g := c.Group(active)
		if g == nil {
			return nil
		}
		return []*canvas.Object{g}
	})
}

// Ungroup splits the one selected group and selects its children.
func (t *Toolbar) Ungroup() bool {
	return t.surface.Update("ungroup", func(c *canvas.Canvas) []*canvas.Object {
		active := c.Active()
		if len(active) != 1 || !active[0].IsGroup() {
			return nil
		}
		return c.Ungroup(active[0])
	})
}
