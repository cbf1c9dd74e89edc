package canvas_test

import (
	"testing"

	"slides/internal/canvas"
	"slides/internal/domain"
)

func defaultStyle() domain.TextStyle {
	return domain.TextStyle{FontFamily: "Arial", FontSize: 20, FontWeight: "normal", FontStyle: "normal", Fill: "#000000"}
}

func ids(objs []*canvas.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

// ─────────────────────────────────────────────────────────────
// Z-order
// ─────────────────────────────────────────────────────────────

func TestArrange(t *testing.T) {
	c := canvas.New(812, 460, 1)
	a := canvas.NewRect(0, 0, 10, 10, "#f00")
	b := canvas.NewRect(0, 0, 10, 10, "#0f0")
	d := canvas.NewRect(0, 0, 10, 10, "#00f")
	c.Add(a)
	c.Add(b)
	c.Add(d)

	tests := []struct {
		name string
		op   func(*canvas.Object) bool
		obj  *canvas.Object
		want []*canvas.Object
	}{
		{"bring a to front", c.BringToFront, a, []*canvas.Object{b, d, a}},
		{"send a backwards", c.SendBackwards, a, []*canvas.Object{b, a, d}},
		{"send d to back", c.SendToBack, d, []*canvas.Object{d, b, a}},
		{"bring d forward", c.BringForward, d, []*canvas.Object{b, d, a}},
	}
	for _, tt := range tests {
		tt.op(tt.obj)
		got := ids(c.Objects())
		want := ids(tt.want)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: order %v, want %v", tt.name, got, want)
			}
		}
	}

	if c.BringToFront(a) {
		t.Error("bringing the top object to front should report no change")
	}
}

// ─────────────────────────────────────────────────────────────
// Grouping
// ─────────────────────────────────────────────────────────────

func TestGroupUngroup(t *testing.T) {
	c := canvas.New(812, 460, 1)
	a := canvas.NewRect(10, 10, 20, 20, "#f00")
	b := canvas.NewRect(50, 40, 20, 20, "#0f0")
	d := canvas.NewRect(0, 0, 5, 5, "#00f")
	c.Add(a)
	c.Add(b)
	c.Add(d)

	if g := c.Group([]*canvas.Object{a}); g != nil {
		t.Fatal("grouping a single object must be refused")
	}

	g := c.Group([]*canvas.Object{a, b})
	if g == nil {
		t.Fatal("expected a group")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 top-level objects, got %d", c.Len())
	}
	if c.Objects()[0] != g {
		t.Error("group should take the stack position of its topmost member")
	}
	if g.Left != 10 || g.Top != 10 || g.Width != 60 || g.Height != 50 {
		t.Errorf("unexpected group bounds %+v", g.Bounds())
	}
	if c.ActiveObject() != g {
		t.Error("group should be selected")
	}

	g.MoveTo(20, 20)
	if a.Left != 20 || b.Left != 60 || b.Top != 50 {
		t.Errorf("children did not follow the group: a=%v,%v b=%v,%v", a.Left, a.Top, b.Left, b.Top)
	}

	children := c.Ungroup(g)
	if len(children) != 2 || c.Len() != 3 {
		t.Fatalf("ungroup returned %d children, canvas has %d", len(children), c.Len())
	}
	if len(c.Active()) != 2 {
		t.Errorf("expected children reselected, got %d", len(c.Active()))
	}
	if c.Find(a.ID) != a {
		t.Error("child not found after ungroup")
	}
}

// ─────────────────────────────────────────────────────────────
// Snapshots
// ─────────────────────────────────────────────────────────────

func TestSnapshotRestore(t *testing.T) {
	c := canvas.New(812, 460, 1)
	c.Background = domain.Background{Color: "#fff"}
	tb := canvas.NewTextbox("Hello", 50, 250, 300, defaultStyle())
	tb.SetSelectionStyles(domain.StyleOverride{FontWeight: domain.StringPtr("bold")}, 0, 2)
	c.Add(tb)
	c.SetActive(tb)

	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	tb.SetText("changed")
	c.Background.Color = "#000"

	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := c.Find(tb.ID)
	if got == nil || got.Text != "Hello" {
		t.Fatalf("expected restored text, got %+v", got)
	}
	if !got.StyleAt(1).Bold() || got.StyleAt(2).Bold() {
		t.Error("per-character styles not restored")
	}
	if c.Background.Color != "#fff" {
		t.Errorf("background not restored: %q", c.Background.Color)
	}
	if len(c.Active()) != 0 {
		t.Error("restore should clear the selection")
	}
}

func TestCenterObject(t *testing.T) {
	c := canvas.New(800, 400, 1)
	r := canvas.NewRect(0, 0, 100, 50, "#000")
	c.Add(r)

	c.CenterObject(r, "center-h")
	if r.Left != 350 || r.Top != 0 {
		t.Errorf("center-h: got %v,%v", r.Left, r.Top)
	}
	c.CenterObject(r, "center-both")
	if r.Left != 350 || r.Top != 175 {
		t.Errorf("center-both: got %v,%v", r.Left, r.Top)
	}
	if c.CenterObject(r, "diagonal") {
		t.Error("unknown mode should be refused")
	}
}
