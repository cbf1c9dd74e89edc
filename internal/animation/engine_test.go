package animation_test

import (
	"errors"
	"testing"
	"time"

	"slides/internal/animation"
	"slides/internal/canvas"
)

type fixture struct {
	c      *canvas.Canvas
	engine *animation.Engine
	obj    *canvas.Object
	t0     time.Time
}

func newFixture() *fixture {
	c := canvas.New(812, 460, 1)
	obj := canvas.NewRect(120, 80, 200, 100, "#3498db")
	obj.Angle = 12
	obj.Opacity = 0.9
	obj.ScaleX, obj.ScaleY = 1.5, 0.75
	c.Add(obj)
	e := animation.NewEngine(c.Find, func() (float64, float64) { return c.Width, c.Height })
	return &fixture{c: c, engine: e, obj: obj, t0: time.Unix(1700000000, 0)}
}

// ─────────────────────────────────────────────────────────────
// Revert semantics
// ─────────────────────────────────────────────────────────────

func TestPreviewBounce_RevertsOnCompletion(t *testing.T) {
	f := newFixture()
	before := animation.Capture(f.obj)

	if err := f.engine.Preview(f.obj.ID, animation.Bounce, f.t0); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if f.engine.Phase(f.obj.ID) != animation.Previewing {
		t.Fatalf("expected previewing, got %v", f.engine.Phase(f.obj.ID))
	}

	f.engine.Tick(f.t0.Add(300 * time.Millisecond))
	if animation.Capture(f.obj) == before {
		t.Fatal("object should be mid-animation")
	}

	finished := f.engine.Tick(f.t0.Add(2 * time.Second))
	if len(finished) != 1 || finished[0] != f.obj.ID {
		t.Fatalf("expected %s to finish, got %v", f.obj.ID, finished)
	}
	if got := animation.Capture(f.obj); got != before {
		t.Fatalf("not reverted:\n got  %+v\n want %+v", got, before)
	}
	if f.engine.Phase(f.obj.ID) != animation.Idle {
		t.Error("expected idle after completion")
	}
}

func TestPreviewBounce_RevertsOnReset(t *testing.T) {
	f := newFixture()
	before := animation.Capture(f.obj)

	_ = f.engine.Preview(f.obj.ID, animation.Bounce, f.t0)
	f.engine.Tick(f.t0.Add(450 * time.Millisecond))
	f.engine.Reset(f.obj.ID)

	if got := animation.Capture(f.obj); got != before {
		t.Fatalf("reset did not restore: %+v", got)
	}
	if _, ok := f.engine.Snapshot(f.obj.ID); !ok {
		t.Error("reset must keep the snapshot")
	}
	// A cancelled tween never writes again.
	f.obj.Left = 5
	f.engine.Tick(f.t0.Add(600 * time.Millisecond))
	if f.obj.Left != 5 {
		t.Error("cancelled tween mutated the object")
	}
}

func TestSecondPreview_KeepsOriginalSnapshot(t *testing.T) {
	f := newFixture()
	before := animation.Capture(f.obj)

	_ = f.engine.Preview(f.obj.ID, animation.SlideInLeft, f.t0)
	f.engine.Tick(f.t0.Add(200 * time.Millisecond))
	_ = f.engine.Preview(f.obj.ID, animation.RotateIn, f.t0.Add(200*time.Millisecond))

	snap, _ := f.engine.Snapshot(f.obj.ID)
	if snap != before {
		t.Fatalf("snapshot overwritten by second preview: %+v", snap)
	}
	f.engine.Tick(f.t0.Add(5 * time.Second))
	if got := animation.Capture(f.obj); got != before {
		t.Fatalf("not reverted after switching previews: %+v", got)
	}
}

func TestForget_ClearsSnapshot(t *testing.T) {
	f := newFixture()
	_ = f.engine.Preview(f.obj.ID, animation.Fade, f.t0)
	f.engine.Forget(f.obj.ID)
	if _, ok := f.engine.Snapshot(f.obj.ID); ok {
		t.Error("snapshot should be gone")
	}
	if f.engine.Running() {
		t.Error("tween should be gone")
	}
}

func TestTick_DropsRemovedObjects(t *testing.T) {
	f := newFixture()
	_ = f.engine.Preview(f.obj.ID, animation.Fade, f.t0)
	f.c.Remove(f.obj)
	f.engine.Tick(f.t0.Add(100 * time.Millisecond))
	if f.engine.Running() {
		t.Error("tween for a removed object should be dropped")
	}
}

func TestRebase(t *testing.T) {
	f := newFixture()
	_ = f.engine.Preview(f.obj.ID, animation.Fade, f.t0)
	f.engine.Tick(f.t0.Add(time.Second))

	f.obj.MoveTo(300, 300)
	f.engine.Rebase(f.obj.ID)
	f.engine.Reset(f.obj.ID)
	if f.obj.Left != 300 || f.obj.Top != 300 {
		t.Errorf("reset should use the rebased snapshot, got %v,%v", f.obj.Left, f.obj.Top)
	}
}

// ─────────────────────────────────────────────────────────────
// Catalogue
// ─────────────────────────────────────────────────────────────

func TestNone_IsValidAndStartsNoTween(t *testing.T) {
	f := newFixture()
	if err := f.engine.Commit(f.obj.ID, animation.None, f.t0); err != nil {
		t.Fatalf("none should be accepted: %v", err)
	}
	if f.engine.Running() {
		t.Error("none must not start a tween")
	}
}

func TestUnknownAnimation(t *testing.T) {
	f := newFixture()
	err := f.engine.Preview(f.obj.ID, "Wobble", f.t0)
	if !errors.Is(err, animation.ErrUnknownAnimation) {
		t.Fatalf("expected ErrUnknownAnimation, got %v", err)
	}
}

func TestCatalogue_DeterministicAndEndsAtBase(t *testing.T) {
	base := animation.Transform{Opacity: 1, Left: 100, Top: 50, ScaleX: 1, ScaleY: 1, Angle: 0}
	env := animation.Env{Width: 200, Height: 100, CanvasWidth: 812, CanvasHeight: 460}

	for _, name := range animation.Names() {
		a, ok := animation.Lookup(name)
		if !ok {
			t.Fatalf("%s missing from catalogue", name)
		}
		if got := a.At(base, 1, env); got != base {
			t.Errorf("%s: final frame %+v differs from base", name, got)
		}
		for _, p := range []float64{0, 0.25, 0.5, 0.75} {
			if a.At(base, p, env) != a.At(base, p, env) {
				t.Errorf("%s: frame at %v not deterministic", name, p)
			}
		}
	}
}
