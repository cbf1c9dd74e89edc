package editor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"slides/internal/canvas"
	"slides/internal/domain"
	"slides/internal/geometry"
	"slides/internal/serializer"
)

// ─────────────────────────────────────────────────────────────
// Gestures: committed user edits on the surface
// ─────────────────────────────────────────────────────────────

// Gesture coordinates are observed pixels on the zoomed surface; the editor divides
// the zoom out before touching the object graph.

var ErrNoImageLoader = errors.New("no image loader configured")

// Select replaces the selection with the top-level objects containing ids.
func (e *Editor) Select(ids ...string) {
	e.do(func() {
		var objs []*canvas.Object
		for _, id := range ids {
			if o := e.canvas.TopLevel(id); o != nil {
				objs = append(objs, o)
			}
		}
		e.canvas.SetActive(objs...)
	})
}

// SelectAll selects every top-level object.
func (e *Editor) SelectAll() {
	e.do(func() { e.canvas.SetActive(e.canvas.Objects()...) })
}

// Discard clears the selection.
func (e *Editor) Discard() {
	e.do(func() { e.canvas.Discard() })
}

// gesture applies fn to the top-level object containing id and commits it.
func (e *Editor) gesture(id, label string, fn func(o *canvas.Object) bool) bool {
	ok := false
	e.do(func() {
		o := e.canvas.TopLevel(id)
		if o == nil {
			return
		}
		e.settle(o)
		if !fn(o) {
			return
		}
		ok = true
		e.commit(label, o)
	})
	return ok
}

// Move ends a drag: the object's top-left lands at the observed point (x, y).
func (e *Editor) Move(id string, x, y float64) bool {
	return e.gesture(id, "modify", func(o *canvas.Object) bool {
		o.MoveTo(x/e.canvas.Zoom, y/e.canvas.Zoom)
		return true
	})
}

// Scale ends a resize with absolute scale factors. Textboxes fold a resize into
// their width and font sizes, so for them the factors apply to the current size.
func (e *Editor) Scale(id string, scaleX, scaleY float64) bool {
	if scaleX <= 0 || scaleY <= 0 {
		return false
	}
	return e.gesture(id, "modify", func(o *canvas.Object) bool {
		if o.ScaleX == 0 || o.ScaleY == 0 {
			return false
		}
		o.ScaleBy(scaleX/o.ScaleX, scaleY/o.ScaleY)
		return true
	})
}

// Resize ends a resize to an observed rendered size.
func (e *Editor) Resize(id string, width, height float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return e.gesture(id, "modify", func(o *canvas.Object) bool {
		if o.Width == 0 || o.Height == 0 {
			return false
		}
		w, h := width/e.canvas.Zoom, height/e.canvas.Zoom
		o.ScaleBy(w/o.ScaledWidth(), h/o.ScaledHeight())
		return true
	})
}

// Rotate ends a rotation. Angles are degrees and are not range-clamped.
func (e *Editor) Rotate(id string, angle float64) bool {
	return e.gesture(id, "modify", func(o *canvas.Object) bool {
		o.Angle = angle
		return true
	})
}

// SetText ends a text edit on a textbox.
func (e *Editor) SetText(id, text string) bool {
	ok := false
	e.do(func() {
		o := e.canvas.Find(id)
		if !o.IsText() {
			return
		}
		o.SetText(text)
		ok = true
		e.commit("text", o)
	})
	return ok
}

// EditText enters text editing on a textbox with the caret range [start, end).
// It selects the textbox if needed; no edit is committed.
func (e *Editor) EditText(id string, start, end int) bool {
	ok := false
	e.do(func() {
		o := e.canvas.Find(id)
		if !o.IsText() {
			return
		}
		if top := e.canvas.TopLevel(id); e.canvas.ActiveObject() != top {
			e.canvas.SetActive(top)
		}
		o.EnterEditing(start, end)
		ok = true
	})
	return ok
}

// ExitEditing leaves text editing on the active textbox.
func (e *Editor) ExitEditing() {
	e.do(func() {
		if o := e.canvas.ActiveObject(); o != nil && o.Editing {
			o.ExitEditing()
		}
	})
}

// ── Insertion and removal ──────────────────────────────────

// Insert adds a new object, selects it and registers it as a pending creation.
// Shapes and groups stay on the canvas only.
func (e *Editor) Insert(o *canvas.Object) string {
	e.do(func() { e.insert(o, "add") })
	return o.ID
}

// InsertImage loads the natural size of src and inserts it at canvas pixels
// (left, top) with a uniform scale.
func (e *Editor) InsertImage(ctx context.Context, src string, left, top, scale float64) (string, error) {
	size, err := e.imageSize(ctx, src)
	if err != nil {
		return "", err
	}
	return e.Insert(canvas.NewImage(src, left, top, size.Width, size.Height, scale)), nil
}

// DropImage places a dropped image at the observed pointer, scaled to fit half
// the canvas without upscaling.
func (e *Editor) DropImage(ctx context.Context, src string, x, y float64) (string, error) {
	size, err := e.imageSize(ctx, src)
	if err != nil {
		return "", err
	}
	var o *canvas.Object
	e.mu.Lock()
	scale := geometry.DropScale(e.canvas.Size(), size)
	o = canvas.NewImage(src, x/e.canvas.Zoom, y/e.canvas.Zoom, size.Width, size.Height, scale)
	e.mu.Unlock()
	return e.Insert(o), nil
}

func (e *Editor) imageSize(ctx context.Context, src string) (geometry.Size, error) {
	if e.images == nil {
		return geometry.Size{}, ErrNoImageLoader
	}
	size, err := e.images.Size(ctx, src)
	if err != nil {
		log.Printf("[Editor] load image %s: %v", src, err)
		return geometry.Size{}, fmt.Errorf("load image: %w", err)
	}
	return size, nil
}

// DeleteSelection removes the selected objects. Confirmed elements are deleted in
// the store; unconfirmed ones are only removed locally. Store failures are logged
// and returned; the local removal stands.
func (e *Editor) DeleteSelection(ctx context.Context) error {
	var jobs []deleteJob
	e.do(func() { jobs = e.removeLocked(e.canvas.Active()) })
	return e.runDeletes(ctx, jobs)
}

// Delete removes the top-level object containing id.
func (e *Editor) Delete(ctx context.Context, id string) error {
	var jobs []deleteJob
	e.do(func() {
		if o := e.canvas.TopLevel(id); o != nil {
			jobs = e.removeLocked([]*canvas.Object{o})
		}
	})
	return e.runDeletes(ctx, jobs)
}

// Clear removes every object through the delete path. The background stays.
func (e *Editor) Clear(ctx context.Context) error {
	var jobs []deleteJob
	e.do(func() { jobs = e.removeLocked(e.canvas.Objects()) })
	return e.runDeletes(ctx, jobs)
}

// ── History ────────────────────────────────────────────────

// Undo restores the previous snapshot. Restoring is not an edit: nothing is persisted.
func (e *Editor) Undo() bool {
	ok := false
	e.do(func() {
		if snap, has := e.history.Undo(); has {
			ok = e.restore(snap)
		}
	})
	return ok
}

func (e *Editor) Redo() bool {
	ok := false
	e.do(func() {
		if snap, has := e.history.Redo(); has {
			ok = e.restore(snap)
		}
	})
	return ok
}

func (e *Editor) restore(snap []byte) bool {
	if err := e.canvas.Restore(snap); err != nil {
		log.Printf("[Editor] restore snapshot: %v", err)
		return false
	}
	e.anim.Retain(func(string) bool { return false })
	clear(e.playing)
	for _, top := range e.canvas.Objects() {
		top.Walk(func(o *canvas.Object) {
			if rec := e.records[o.ID]; rec == nil || rec.removed {
				// Deleted in the store; the next edit creates it again.
				_, persistable := serializer.ElementType(o)
				e.records[o.ID] = &record{recreate: persistable}
			}
		})
	}
	e.queueHistory()
	return true
}

// ── Background ─────────────────────────────────────────────

// SetBackgroundColor paints the canvas and hands the change to the update callback.
// An empty color clears it; anything else must be a hex color.
func (e *Editor) SetBackgroundColor(color string) bool {
	if color != "" && !domain.ValidColor(color) {
		log.Printf("[Editor] invalid background color %q", color)
		return false
	}
	e.do(func() {
		e.canvas.Background.Color = color
		e.backgroundChanged()
	})
	return true
}

// SetBackgroundImage sets a cover-fit background image. An empty url removes it.
func (e *Editor) SetBackgroundImage(ctx context.Context, url string) error {
	scale := 0.0
	if url != "" && e.images != nil {
		size, err := e.images.Size(ctx, url)
		if err != nil {
			log.Printf("[Editor] background image %s: %v", url, err)
			return fmt.Errorf("load background: %w", err)
		}
		e.mu.Lock()
		scale = geometry.CoverScale(e.canvas.Size(), size)
		e.mu.Unlock()
	}
	e.do(func() {
		e.canvas.Background.Image = url
		e.bgScale = scale
		e.backgroundChanged()
	})
	return nil
}

func (e *Editor) backgroundChanged() {
	bg := e.canvas.Background
	e.pushHistory("background")
	e.queueUpdate(domain.SlideUpdate{SlideID: e.slideID, Background: &bg})
	e.queue(domain.EventBackgroundUpdated, bg)
}
