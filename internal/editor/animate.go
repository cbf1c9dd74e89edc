package editor

import (
	"fmt"
	"log"
	"time"

	"slides/internal/animation"
	"slides/internal/canvas"
	"slides/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Animations
// ─────────────────────────────────────────────────────────────

// PreviewAnimation plays name on id for feedback; the object reverts when it ends.
func (e *Editor) PreviewAnimation(id, name string) error {
	var err error
	e.do(func() {
		if err = e.anim.Preview(id, name, time.Now()); err == nil {
			e.track(id, name)
		}
	})
	return err
}

// SetAnimation persists an entry (or exit) animation choice on cmd.ObjectID and,
// for entry animations, plays it once. "none" is stored explicitly.
func (e *Editor) SetAnimation(cmd domain.AnimationCommand) error {
	if _, ok := animation.Lookup(cmd.Animation); !ok {
		return fmt.Errorf("%w: %q", animation.ErrUnknownAnimation, cmd.Animation)
	}
	var err error
	e.do(func() {
		o := e.canvas.Find(cmd.ObjectID)
		if o == nil {
			err = fmt.Errorf("%w: %s", animation.ErrNoTarget, cmd.ObjectID)
			return
		}
		e.settle(o)
		name := cmd.Animation
		if cmd.Exit {
			o.ExitAnimation = &name
			o.ExitAnimationDuration, o.ExitAnimationDelay = cmd.Duration, cmd.Delay
		} else {
			o.EntryAnimation = &name
			o.EntryAnimationDuration, o.EntryAnimationDelay = cmd.Duration, cmd.Delay
		}
		e.commit("animation", o)
		if o == e.canvas.ActiveObject() {
			e.queueSelection()
		}
		if cmd.Exit || name == domain.AnimationNone {
			return
		}
		if err = e.anim.Commit(o.ID, name, time.Now()); err == nil {
			e.track(o.ID, name)
		}
	})
	return err
}

// ResetAnimation cancels a preview on id, or on every object when id is empty.
func (e *Editor) ResetAnimation(id string) {
	e.do(func() {
		if id == "" {
			e.anim.ResetAll()
			clear(e.playing)
			return
		}
		e.anim.Reset(id)
		delete(e.playing, id)
	})
}

// AnimationPhase reports the engine phase of id.
func (e *Editor) AnimationPhase(id string) animation.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.anim.Phase(id)
}

func (e *Editor) track(id, name string) {
	if e.anim.Phase(id) == animation.Idle {
		delete(e.playing, id)
		return
	}
	e.playing[id] = name
}

// Tick advances running animations to now. Start calls it on every frame.
func (e *Editor) Tick(now time.Time) {
	e.do(func() {
		if !e.anim.Running() {
			return
		}
		for _, id := range e.anim.Tick(now) {
			name := e.playing[id]
			delete(e.playing, id)
			e.queue(domain.EventAnimationFinished, domain.AnimationFinished{ObjectID: id, Animation: name})
		}
	})
}

// ── Display order ──────────────────────────────────────────

// UpdateDisplayOrder applies a bulk playback order. Elements are matched by store
// id; every changed one is persisted.
func (e *Editor) UpdateDisplayOrder(elements []domain.SlideElement) int {
	changed := 0
	e.do(func() {
		var objs []*canvas.Object
		for _, el := range elements {
			id, ok := e.localIDLocked(el.SlideElementID)
			if !ok {
				continue
			}
			o := e.canvas.Find(id)
			if o == nil || o.DisplayOrder == el.DisplayOrder {
				continue
			}
			o.DisplayOrder = el.DisplayOrder
			objs = append(objs, o)
		}
		changed = len(objs)
		if changed > 0 {
			e.commit("display-order", objs...)
			log.Printf("[Editor] display order changed for %d elements", changed)
		}
	})
	return changed
}
