package toolbar

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"slides/internal/bus"
	"slides/internal/canvas"
	"slides/internal/domain"
)

// Surface is the part of the editing surface the toolbar drives. Every read and
// write of the object graph goes through Inspect or Update.
type Surface interface {
	Inspect(fn func(c *canvas.Canvas))
	Update(label string, fn func(c *canvas.Canvas) []*canvas.Object) bool
	Insert(o *canvas.Object) string
	InsertImage(ctx context.Context, src string, left, top, scale float64) (string, error)
	DeleteSelection(ctx context.Context) error
	Clear(ctx context.Context) error
}

var ErrNoSource = errors.New("image source is empty")

// textboxGuard swallows a second add-textbox dispatched right after the first.
const textboxGuard = 500 * time.Millisecond

// Default placements for inserted objects, in canvas pixels.
const (
	textboxLeft  = 50
	textboxTop   = 250
	textboxWidth = 300
	shapeLeft    = 100
	shapeTop     = 100
	imageScale   = 0.5
	arrowPath    = "M 0 0 L 100 0 L 90 -10 M 100 0 L 90 10"
)

// DefaultTextStyle is the run default of a new textbox.
var DefaultTextStyle = domain.TextStyle{
	FontFamily: "Arial",
	FontSize:   20,
	FontWeight: "normal",
	FontStyle:  "normal",
	Fill:       "#000000",
}

// Toolbar turns formatting and structural commands into surface mutations and
// broadcasts the format state of the current selection.
type Toolbar struct {
	surface Surface
	emitter bus.EventEmitter

	mu          sync.Mutex
	lastTextbox time.Time
	now         func() time.Time
}

func New(surface Surface, emitter bus.EventEmitter) *Toolbar {
	return &Toolbar{surface: surface, emitter: emitter, now: time.Now}
}

// ─────────────────────────────────────────────────────────────
// Insertion
// ─────────────────────────────────────────────────────────────

// AddTextbox inserts a "New Text" textbox. A repeat within the guard window is
// ignored and reports false.
func (t *Toolbar) AddTextbox() (string, bool) {
	t.mu.Lock()
	now := t.now()
	if !t.lastTextbox.IsZero() && now.Sub(t.lastTextbox) < textboxGuard {
		t.mu.Unlock()
		log.Println("[Toolbar] add-textbox ignored: repeated dispatch")
		return "", false
	}
	t.lastTextbox = now
	t.mu.Unlock()

	o := canvas.NewTextbox("New Text", textboxLeft, textboxTop, textboxWidth, DefaultTextStyle)
	return t.surface.Insert(o), true
}

// AddShape inserts one of the stock shapes: rect, circle, triangle or arrow.
func (t *Toolbar) AddShape(kind canvas.Kind) (string, bool) {
	var o *canvas.Object
	switch kind {
	case canvas.KindRect:
		o = canvas.NewRect(shapeLeft, shapeTop, 100, 60, "#3498db")
	case canvas.KindCircle:
		o = canvas.NewCircle(shapeLeft, shapeTop, 40, "#e74c3c")
	case canvas.KindTriangle:
		o = canvas.NewTriangle(shapeLeft, shapeTop, 60, 60, "#9b59b6")
	case canvas.KindArrow:
		o = canvas.NewArrow(shapeLeft, shapeTop, arrowPath, "#2c3e50", 4)
	default:
		return "", false
	}
	return t.surface.Insert(o), true
}

// AddImage inserts src at the stock position with a half scale.
func (t *Toolbar) AddImage(ctx context.Context, src string) (string, error) {
	if src == "" {
		return "", ErrNoSource
	}
	return t.surface.InsertImage(ctx, src, shapeLeft, shapeTop, imageScale)
}

// Delete removes the selection.
func (t *Toolbar) Delete(ctx context.Context) error {
	return t.surface.DeleteSelection(ctx)
}

// Clear removes every object on the slide.
func (t *Toolbar) Clear(ctx context.Context) error {
	return t.surface.Clear(ctx)
}
