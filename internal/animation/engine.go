package animation

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"slides/internal/canvas"
)

var (
	ErrUnknownAnimation = errors.New("unknown animation")
	ErrNoTarget         = errors.New("animation target not found")
)

type Phase int

const (
	Idle Phase = iota
	Previewing
	Committed
)

func (p Phase) String() string {
	switch p {
	case Previewing:
		return "previewing"
	case Committed:
		return "committed"
	}
	return "idle"
}

// Resolver looks an object up by id at the moment it is needed.
type Resolver func(id string) *canvas.Object

type tween struct {
	anim  Animation
	phase Phase
	start time.Time
	base  Transform
}

// Engine runs at most one tween per object and remembers the pre-animation transform
// of every object it has touched. It holds no object references; every tick resolves
// ids again. Not safe for concurrent use.
type Engine struct {
	resolve   Resolver
	canvas    func() (float64, float64)
	snapshots map[string]Transform
	tweens    map[string]*tween
}

// NewEngine returns an engine. canvasSize reports the current canvas dimensions.
func NewEngine(resolve Resolver, canvasSize func() (float64, float64)) *Engine {
	return &Engine{
		resolve:   resolve,
		canvas:    canvasSize,
		snapshots: make(map[string]Transform),
		tweens:    make(map[string]*tween),
	}
}

// Capture reads the animatable transform of o.
func Capture(o *canvas.Object) Transform {
	return Transform{Opacity: o.Opacity, Left: o.Left, Top: o.Top, ScaleX: o.ScaleX, ScaleY: o.ScaleY, Angle: o.Angle}
}

// Apply writes t onto o; group children follow the move.
func Apply(o *canvas.Object, t Transform) {
	o.Opacity, o.ScaleX, o.ScaleY, o.Angle = t.Opacity, t.ScaleX, t.ScaleY, t.Angle
	o.MoveTo(t.Left, t.Top)
}

// Preview plays name once for feedback and reverts when it ends.
func (e *Engine) Preview(id, name string, now time.Time) error {
	return e.start(id, name, Previewing, now)
}

// Commit plays the confirmed choice once; persisting it is the caller's job.
func (e *Engine) Commit(id, name string, now time.Time) error {
	return e.start(id, name, Committed, now)
}

func (e *Engine) start(id, name string, phase Phase, now time.Time) error {
	anim, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
	}
	o := e.resolve(id)
	if o == nil {
		return fmt.Errorf("%w: %s", ErrNoTarget, id)
	}

	e.cancel(id, o)
	base, ok := e.snapshots[id]
	if !ok {
		base = Capture(o)
		e.snapshots[id] = base
	}
	if anim.Duration <= 0 {
		Apply(o, base)
		return nil
	}

	e.tweens[id] = &tween{anim: anim, phase: phase, start: now, base: base}
	Apply(o, anim.At(base, 0, e.env(o, base)))
	return nil
}

// cancel stops the running tween and puts o back on its snapshot.
func (e *Engine) cancel(id string, o *canvas.Object) {
	if _, running := e.tweens[id]; !running {
		return
	}
	delete(e.tweens, id)
	if base, ok := e.snapshots[id]; ok && o != nil {
		Apply(o, base)
	}
}

// Reset cancels any running tween and restores the snapshot, which is kept.
func (e *Engine) Reset(id string) {
	o := e.resolve(id)
	e.cancel(id, o)
	if base, ok := e.snapshots[id]; ok && o != nil {
		Apply(o, base)
	}
}

// ResetAll resets every tracked object.
func (e *Engine) ResetAll() {
	for _, id := range sortedKeys(e.snapshots) {
		e.Reset(id)
	}
}

// Forget drops all state for id. Called when the object is deleted.
func (e *Engine) Forget(id string) {
	delete(e.tweens, id)
	delete(e.snapshots, id)
}

// Rebase re-captures the snapshot after a committed edit, unless a tween is running.
func (e *Engine) Rebase(id string) {
	if _, running := e.tweens[id]; running {
		return
	}
	if _, ok := e.snapshots[id]; !ok {
		return
	}
	if o := e.resolve(id); o != nil {
		e.snapshots[id] = Capture(o)
	}
}

// Retain drops state for every id not in keep.
func (e *Engine) Retain(keep func(id string) bool) {
	for _, id := range sortedKeys(e.snapshots) {
		if !keep(id) {
			e.Forget(id)
		}
	}
}

// Tick advances every running tween to now and returns the ids that finished.
func (e *Engine) Tick(now time.Time) []string {
	var finished []string
	for _, id := range sortedKeys(e.tweens) {
		tw := e.tweens[id]
		o := e.resolve(id)
		if o == nil {
			e.Forget(id)
			continue
		}
		p := float64(now.Sub(tw.start)) / float64(tw.anim.Duration)
		if p >= 1 {
			delete(e.tweens, id)
			Apply(o, tw.base)
			finished = append(finished, id)
			continue
		}
		Apply(o, tw.anim.At(tw.base, p, e.env(o, tw.base)))
	}
	return finished
}

// Phase reports what the engine is doing with id.
func (e *Engine) Phase(id string) Phase {
	if tw, ok := e.tweens[id]; ok {
		return tw.phase
	}
	return Idle
}

// Running reports whether any tween is active.
func (e *Engine) Running() bool { return len(e.tweens) > 0 }

// Active returns the ids with a running tween, sorted.
func (e *Engine) Active() []string { return sortedKeys(e.tweens) }

// Snapshot returns the stored pre-animation transform for id.
func (e *Engine) Snapshot(id string) (Transform, bool) {
	t, ok := e.snapshots[id]
	return t, ok
}

func (e *Engine) env(o *canvas.Object, base Transform) Env {
	env := Env{Width: o.Width * base.ScaleX, Height: o.Height * base.ScaleY}
	if e.canvas != nil {
		env.CanvasWidth, env.CanvasHeight = e.canvas()
	}
	return env
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
