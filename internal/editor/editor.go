package editor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"slides/internal/animation"
	"slides/internal/bus"
	"slides/internal/canvas"
	"slides/internal/domain"
	"slides/internal/geometry"
	"slides/internal/history"
	"slides/internal/serializer"
)

// ─────────────────────────────────────────────────────────────
// Editor: the controller of one live slide canvas
// ─────────────────────────────────────────────────────────────

// Options configures an Editor. Zero fields take the DefaultOptions value.
type Options struct {
	Reference      geometry.Size
	FontReference  float64
	Zoom           float64
	Debounce       time.Duration
	LoadAttempts   int
	LoadDelay      time.Duration
	HistoryLimit   int
	FrameInterval  time.Duration
	RequestTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Reference:      geometry.Size{Width: geometry.ReferenceWidth, Height: geometry.ReferenceHeight},
		FontReference:  geometry.FontReferenceWidth,
		Zoom:           1,
		Debounce:       500 * time.Millisecond,
		LoadAttempts:   5,
		LoadDelay:      200 * time.Millisecond,
		HistoryLimit:   history.DefaultLimit,
		FrameInterval:  16 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Reference.Width <= 0 || o.Reference.Height <= 0 {
		o.Reference = d.Reference
	}
	if o.FontReference <= 0 {
		o.FontReference = d.FontReference
	}
	if o.Zoom <= 0 {
		o.Zoom = d.Zoom
	}
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.LoadAttempts <= 0 {
		o.LoadAttempts = d.LoadAttempts
	}
	if o.LoadDelay < 0 {
		o.LoadDelay = d.LoadDelay
	}
	if o.HistoryLimit <= 1 {
		o.HistoryLimit = d.HistoryLimit
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = d.FrameInterval
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = d.RequestTimeout
	}
	return o
}

// ImageLoader reports the natural size of an image source.
type ImageLoader interface {
	Size(ctx context.Context, src string) (geometry.Size, error)
}

// ElementSource returns the slide's elements, or domain.ErrNotReady while they are
// still arriving.
type ElementSource func(ctx context.Context) ([]domain.SlideElement, error)

// record is the persistence state of one element, keyed by the object's local id.
type record struct {
	serverID string
	pending  bool // create call in flight
	removed  bool
	recreate bool // deleted in the store and brought back by undo or redo
	dirty    bool // modified while pending or while an update was in flight
	debounce func(func())
}

// Editor owns one canvas bound to one slide. Its mutex is the single logical UI
// thread: gestures, toolbar commands and animation ticks all run under it. Network
// calls run outside the lock and merge back by element id.
type Editor struct {
	mu       sync.Mutex
	opts     Options
	slideID  string
	canvas   *canvas.Canvas
	norm     geometry.Normalizer
	api      domain.ElementAPI
	emitter  bus.EventEmitter
	images   ImageLoader
	history  *history.Stack
	anim     *animation.Engine
	records  map[string]*record
	elements map[string]domain.SlideElement // last persisted state
	playing  map[string]string              // running animation name by object id
	onUpdate func(domain.SlideUpdate)
	outbox   []func()
	calls    inflight
	bgScale  float64
	stop     context.CancelFunc
}

// New returns an editor with an empty canvas for slideID. images may be nil, in
// which case images are placed without their natural size.
func New(slideID string, api domain.ElementAPI, emitter bus.EventEmitter, images ImageLoader, opts Options) *Editor {
	opts = opts.withDefaults()
	e := &Editor{
		opts:    opts,
		slideID: slideID,
		api:     api,
		emitter: emitter,
		images:  images,
		norm: geometry.Normalizer{
			Ref:     opts.Reference,
			FontRef: opts.FontReference,
			Zoom:    opts.Zoom,
		},
	}
	e.reset(domain.Background{})
	return e
}

// reset installs a fresh canvas and session state. Caller holds the lock or owns e.
func (e *Editor) reset(bg domain.Background) {
	e.canvas = canvas.New(e.opts.Reference.Width, e.opts.Reference.Height, e.opts.Zoom)
	e.canvas.Background = bg
	e.anim = animation.NewEngine(e.canvas.Find, func() (float64, float64) {
		return e.canvas.Width, e.canvas.Height
	})
	e.records = make(map[string]*record)
	e.elements = make(map[string]domain.SlideElement)
	e.playing = make(map[string]string)
	e.history = history.New(e.opts.HistoryLimit)
}

// OnUpdate sets the callback receiving element and background changes.
func (e *Editor) OnUpdate(fn func(domain.SlideUpdate)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = fn
}

func (e *Editor) SlideID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slideID
}

func (e *Editor) Normalizer() geometry.Normalizer { return e.norm }

// ── Locking and the outbox ─────────────────────────────────

// do runs fn under the lock, then delivers every notification fn queued. Selection
// changes are detected here so that every path reports them the same way.
func (e *Editor) do(fn func()) {
	e.mu.Lock()
	sel, text := e.selectionKey(), e.textKey()
	fn()
	if e.selectionKey() != sel {
		e.queueSelection()
	}
	if e.textKey() != text {
		e.queueTextSelection()
	}
	out := e.outbox
	e.outbox = nil
	e.mu.Unlock()

	for _, deliver := range out {
		deliver()
	}
}

func (e *Editor) queue(event string, data any) {
	if e.emitter == nil {
		return
	}
	e.outbox = append(e.outbox, func() { e.emitter.Emit(context.Background(), event, data) })
}

func (e *Editor) queueUpdate(u domain.SlideUpdate) {
	if fn := e.onUpdate; fn != nil {
		e.outbox = append(e.outbox, func() { fn(u) })
	}
}

func (e *Editor) selectionKey() string {
	var ids []string
	for _, o := range e.canvas.Active() {
		ids = append(ids, o.ID)
	}
	return strings.Join(ids, ",")
}

func (e *Editor) textKey() string {
	o := e.canvas.ActiveObject()
	if !o.IsText() || !o.Editing {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", o.ID, o.SelectionStart, o.SelectionEnd)
}

func (e *Editor) queueSelection() {
	ev := domain.SelectionChanged{SlideID: e.slideID}
	if o := e.canvas.ActiveObject(); o != nil {
		ev.ObjectID = o.ID
		ev.AnimationName = o.EntryAnimation
	}
	e.queue(domain.EventSelectionChanged, ev)
}

func (e *Editor) queueTextSelection() {
	ev := domain.TextSelection{}
	if o := e.canvas.ActiveObject(); o != nil {
		ev.ObjectID = o.ID
		if o.IsText() && o.Editing {
			ev.Start, ev.End, ev.Editing = o.SelectionStart, o.SelectionEnd, true
		}
	}
	e.queue(domain.EventTextSelectionChange, ev)
}

func (e *Editor) queueHistory() {
	e.queue(domain.EventHistoryChanged, domain.HistoryState{
		CanUndo: e.history.CanUndo(),
		CanRedo: e.history.CanRedo(),
	})
}

// queueElementsChanged reports the persisted state of every element on the canvas.
func (e *Editor) queueElementsChanged() {
	els := e.persistedLocked()
	e.queueUpdate(domain.SlideUpdate{SlideID: e.slideID, Elements: els})
	e.queue(domain.EventElementsChanged, els)
}

// ── Surface access for the toolbar and transports ──────────

// Inspect runs fn with read access to the canvas. fn must not keep references.
func (e *Editor) Inspect(fn func(c *canvas.Canvas)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.canvas)
}

// Update runs a structural or style mutation. fn returns the objects it changed;
// those are committed to history and scheduled for persistence. An empty result
// means the command did not apply.
func (e *Editor) Update(label string, fn func(c *canvas.Canvas) []*canvas.Object) bool {
	applied := false
	e.do(func() {
		for _, o := range e.canvas.Active() {
			e.settle(o)
		}
		changed := fn(e.canvas)
		if len(changed) == 0 {
			return
		}
		applied = true
		e.commit(label, changed...)
	})
	return applied
}

// Objects returns copies of the top-level objects, bottom to top.
func (e *Editor) Objects() []*canvas.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*canvas.Object
	for _, o := range e.canvas.Objects() {
		out = append(out, o.Clone())
	}
	return out
}

// Object returns a copy of the object with id, searching inside groups.
func (e *Editor) Object(id string) *canvas.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o := e.canvas.Find(id); o != nil {
		return o.Clone()
	}
	return nil
}

// ServerID returns the store id of a local object, if confirmed.
func (e *Editor) ServerID(localID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.records[localID]
	if rec == nil || rec.serverID == "" {
		return "", false
	}
	return rec.serverID, true
}

// LocalID maps a store id back to the object id on the canvas.
func (e *Editor) LocalID(serverID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localIDLocked(serverID)
}

func (e *Editor) localIDLocked(serverID string) (string, bool) {
	if serverID == "" {
		return "", false
	}
	for id, rec := range e.records {
		if rec.serverID == serverID && !rec.removed {
			return id, true
		}
	}
	return "", false
}

// Pending reports whether the create call for id has not resolved yet.
func (e *Editor) Pending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.records[id]
	return rec != nil && rec.pending
}

// Elements serializes the live canvas. Confirmed elements carry their store id.
func (e *Editor) Elements() []domain.SlideElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.SlideElement
	e.withStatic(func() {
		for layer, top := range e.canvas.Objects() {
			top.Walk(func(o *canvas.Object) {
				el, err := serializer.ToPayload(o, e.norm, layer)
				if err != nil {
					return
				}
				if rec := e.records[o.ID]; rec != nil {
					el.SlideElementID = rec.serverID
				}
				if prev, ok := e.elements[o.ID]; ok {
					el.CreatedAt, el.UpdatedAt = prev.CreatedAt, prev.UpdatedAt
				}
				out = append(out, el)
			})
		}
	})
	return out
}

// Slide returns the live canvas as a slide, ready for the static renderer.
func (e *Editor) Slide() domain.Slide {
	els := e.Elements()
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Slide{ID: e.slideID, Background: e.canvas.Background, Elements: els}
}

// Snapshot serializes the whole canvas as history stores it.
func (e *Editor) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas.Snapshot()
}

// BackgroundScale is the cover scale of the background image, 0 without one.
func (e *Editor) BackgroundScale() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bgScale
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// persistedLocked returns the last persisted state of every element on the canvas,
// in stack order.
func (e *Editor) persistedLocked() []domain.SlideElement {
	els := []domain.SlideElement{}
	for _, top := range e.canvas.Objects() {
		top.Walk(func(o *canvas.Object) {
			if el, ok := e.elements[o.ID]; ok {
				els = append(els, el)
			}
		})
	}
	return els
}

// ── Lifecycle ──────────────────────────────────────────────

// Start drives running animations on a ticker until ctx is done or Close is called.
func (e *Editor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	if e.stop != nil {
		e.stop()
	}
	e.stop = cancel
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(e.opts.FrameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				e.Tick(now)
			}
		}
	}()
}

// Close stops the animation driver, persists pending edits and waits for every
// outstanding call until ctx is done.
func (e *Editor) Close(ctx context.Context) {
	e.mu.Lock()
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
	e.mu.Unlock()
	e.Flush(ctx)
	log.Printf("[Editor] closed slide %s", e.SlideID())
}
