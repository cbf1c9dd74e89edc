package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"reflect"
	"slices"
	"time"

	"slides/internal/animation"
	"slides/internal/canvas"
	"slides/internal/domain"
	"slides/internal/serializer"

	"github.com/bep/debounce"
)

// ─────────────────────────────────────────────────────────────
// Persistence pipeline
// ─────────────────────────────────────────────────────────────

// commit records a user edit: one history entry, then every persistable object
// inside objs is scheduled for a debounced update.
func (e *Editor) commit(label string, objs ...*canvas.Object) {
	e.pushHistory(label)
	for _, o := range objs {
		o.Walk(func(x *canvas.Object) {
			e.anim.Rebase(x.ID)
			e.schedule(x.ID)
		})
	}
}

func (e *Editor) pushHistory(label string) {
	var snap []byte
	var err error
	e.withStatic(func() { snap, err = e.canvas.Snapshot() })
	if err != nil {
		log.Printf("[Editor] snapshot for %q failed: %v", label, err)
		return
	}
	e.history.Push(label, snap)
	e.queueHistory()
}

func (e *Editor) resetHistory() {
	snap, err := e.canvas.Snapshot()
	if err != nil {
		log.Printf("[Editor] initial snapshot failed: %v", err)
		return
	}
	e.history.Reset(snap)
	e.queueHistory()
}

// withStatic runs fn with every animating object put back on its static transform.
// History and payloads never see a frame of a running tween.
func (e *Editor) withStatic(fn func()) {
	type saved struct {
		o   *canvas.Object
		cur animation.Transform
	}
	var restore []saved
	for _, id := range e.anim.Active() {
		o := e.canvas.Find(id)
		base, ok := e.anim.Snapshot(id)
		if o == nil || !ok {
			continue
		}
		restore = append(restore, saved{o: o, cur: animation.Capture(o)})
		animation.Apply(o, base)
	}
	fn()
	for _, s := range restore {
		animation.Apply(s.o, s.cur)
	}
}

// settle stops any tween on o or its children before a gesture moves it.
func (e *Editor) settle(o *canvas.Object) {
	o.Walk(func(x *canvas.Object) {
		if e.anim.Phase(x.ID) != animation.Idle {
			e.anim.Reset(x.ID)
			delete(e.playing, x.ID)
		}
	})
}

func (e *Editor) layerOf(o *canvas.Object) int {
	return e.canvas.IndexOf(e.canvas.TopLevel(o.ID))
}

// schedule queues a debounced update for id. Unconfirmed elements are only marked
// dirty; their create result triggers the update.
func (e *Editor) schedule(id string) {
	rec := e.records[id]
	if rec == nil || rec.removed {
		return
	}
	if rec.pending {
		rec.dirty = true
		return
	}
	if rec.serverID == "" {
		if o := e.canvas.Find(id); rec.recreate && o != nil {
			e.startCreate(o)
		}
		return
	}
	if rec.debounce == nil {
		rec.debounce = debounce.New(e.opts.Debounce)
	}
	rec.debounce(func() { e.persist(id) })
}

type updateJob struct {
	slideID  string
	id       string
	serverID string
	payload  domain.SlideElement
}

// persist sends the current state of id if it differs from what the store has.
func (e *Editor) persist(id string) {
	e.mu.Lock()
	job, ok := e.prepareUpdate(id)
	e.mu.Unlock()
	if ok {
		e.sendUpdate(job)
	}
}

func (e *Editor) prepareUpdate(id string) (updateJob, bool) {
	rec := e.records[id]
	if rec == nil || rec.removed || rec.pending || rec.serverID == "" {
		return updateJob{}, false
	}
	o := e.canvas.Find(id)
	if o == nil {
		return updateJob{}, false
	}
	var payload domain.SlideElement
	var err error
	e.withStatic(func() { payload, err = serializer.ToPayload(o, e.norm, e.layerOf(o)) })
	if err != nil {
		log.Printf("[Editor] serialize %s: %v", id, err)
		return updateJob{}, false
	}
	if prev, ok := e.elements[id]; ok && samePayload(prev, payload) {
		return updateJob{}, false
	}
	if !e.calls.TryLock(id) {
		rec.dirty = true
		return updateJob{}, false
	}
	return updateJob{slideID: e.slideID, id: id, serverID: rec.serverID, payload: payload}, true
}

func (e *Editor) sendUpdate(job updateJob) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.RequestTimeout)
	res, err := e.api.UpdateSlideElement(ctx, job.slideID, job.serverID, job.payload)
	cancel()
	e.calls.Unlock(job.id)

	again := false
	e.do(func() {
		rec := e.records[job.id]
		if rec == nil || rec.removed {
			return
		}
		if err != nil {
			log.Printf("[Editor] update element %s failed: %v", job.serverID, err)
		} else {
			el := job.payload
			el.SlideElementID = job.serverID
			el.Merge(res)
			e.elements[job.id] = el
			e.queueElementsChanged()
		}
		if rec.dirty {
			rec.dirty = false
			again = true
		}
	})
	if again {
		e.persist(job.id)
	}
}

// samePayload compares two payloads ignoring store-assigned fields. Geometry is
// compared with a tolerance so percent/pixel round trips do not count as edits.
func samePayload(a, b domain.SlideElement) bool {
	const eps = 1e-9
	geo := [][2]*float64{
		{&a.PositionX, &b.PositionX},
		{&a.PositionY, &b.PositionY},
		{&a.Width, &b.Width},
		{&a.Height, &b.Height},
		{&a.Rotation, &b.Rotation},
	}
	for _, g := range geo {
		if math.Abs(*g[0]-*g[1]) > eps {
			return false
		}
		*g[0], *g[1] = 0, 0
	}
	a.SlideElementID, b.SlideElementID = "", ""
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}

// ── Create ─────────────────────────────────────────────────

// insert places o on top, selects it and starts a create for each persistable
// object inside it.
func (e *Editor) insert(o *canvas.Object, label string) {
	e.canvas.Add(o)
	e.canvas.SetActive(o)
	e.pushHistory(label)
	o.Walk(func(x *canvas.Object) {
		if _, ok := serializer.ElementType(x); ok {
			e.startCreate(x)
		} else {
			e.records[x.ID] = &record{}
		}
	})
}

func (e *Editor) startCreate(o *canvas.Object) {
	payload, err := serializer.ToPayload(o, e.norm, e.layerOf(o))
	if err != nil {
		log.Printf("[Editor] serialize new %s: %v", o.ID, err)
		return
	}
	rec := &record{pending: true}
	e.records[o.ID] = rec
	done := e.calls.Track()
	go e.create(e.slideID, o.ID, rec, payload, done)
}

// create issues exactly one create call. rec is captured so that a result arriving
// after the element was deleted cannot attach to a later record.
func (e *Editor) create(slideID, id string, rec *record, payload domain.SlideElement, done func()) {
	defer done()
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.RequestTimeout)
	res, err := e.api.CreateSlideElement(ctx, slideID, payload)
	cancel()

	e.do(func() {
		rec.pending = false
		switch {
		case rec.removed:
			if err == nil && res != nil {
				log.Printf("[Editor] element %s deleted before its create resolved; dropping store id %s", id, res.SlideElementID)
			}
			return
		case err != nil:
			log.Printf("[Editor] create element %s failed: %v", id, err)
			return
		case res == nil || res.SlideElementID == "":
			log.Printf("[Editor] create element %s returned no id", id)
			return
		}

		rec.serverID = res.SlideElementID
		el := payload
		el.Merge(res)
		e.elements[id] = el
		e.queue(domain.EventElementCreated, domain.ElementCreated{SlideID: e.slideID, ObjectID: id, Element: el})
		e.queueElementsChanged()
		if rec.dirty {
			rec.dirty = false
			e.schedule(id)
		}
	})
}

// ── Delete ─────────────────────────────────────────────────

type deleteJob struct {
	slideID  string
	id       string
	serverID string
}

// removeLocked takes objs off the canvas and returns the store deletes to issue.
// Unconfirmed elements need none.
func (e *Editor) removeLocked(objs []*canvas.Object) []deleteJob {
	if len(objs) == 0 {
		return nil
	}
	var jobs []deleteJob
	for _, o := range objs {
		o.Walk(func(x *canvas.Object) {
			e.anim.Forget(x.ID)
			delete(e.playing, x.ID)
			delete(e.elements, x.ID)
			rec := e.records[x.ID]
			if rec == nil {
				return
			}
			rec.removed = true
			if rec.debounce != nil {
				rec.debounce(func() {})
			}
			if rec.serverID != "" {
				jobs = append(jobs, deleteJob{slideID: e.slideID, id: x.ID, serverID: rec.serverID})
			}
		})
		e.canvas.Remove(o)
	}
	e.pushHistory("remove")
	e.queueElementsChanged()
	return jobs
}

// runDeletes issues the store deletes sequentially. Failures are logged and
// returned joined; local removal already happened.
func (e *Editor) runDeletes(ctx context.Context, jobs []deleteJob) error {
	if len(jobs) == 0 {
		return nil
	}
	defer e.calls.Track()()
	var errs []error
	for _, j := range jobs {
		if err := e.api.DeleteSlideElement(ctx, j.slideID, j.serverID); err != nil {
			log.Printf("[Editor] delete element %s failed: %v", j.serverID, err)
			errs = append(errs, fmt.Errorf("delete %s: %w", j.serverID, err))
		}
	}
	return errors.Join(errs...)
}

// ── Flush ──────────────────────────────────────────────────

// Flush sends every debounced update now and waits for all outstanding calls
// until ctx is done.
func (e *Editor) Flush(ctx context.Context) {
	e.mu.Lock()
	var ids []string
	for id, rec := range e.records {
		if rec.debounce != nil && !rec.removed {
			rec.debounce(func() {})
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		e.persist(id)
	}
	e.calls.WaitAll(ctx)
}
