package geometry_test

import (
	"math"
	"testing"

	"slides/internal/geometry"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= eps*math.Max(1, math.Abs(b)) }

// ─────────────────────────────────────────────────────────────
// Percent conversion
// ─────────────────────────────────────────────────────────────

func TestRoundTrip_WithZoom(t *testing.T) {
	pixels := []float64{0, 1, 10.5, 81.2, 406, 812, 1234.567, -40}
	refs := []float64{1, 460, 812, 1920}
	zooms := []float64{0.25, 0.5, 1, 1.5, 2, 3.75}

	for _, px := range pixels {
		for _, ref := range refs {
			for _, z := range zooms {
				pct := geometry.PercentFromObserved(px, ref, z)
				back := geometry.ObservedFromPercent(pct, ref, z)
				if !approx(back, px) {
					t.Errorf("px=%v ref=%v zoom=%v: got %v back", px, ref, z, back)
				}
			}
		}
	}
}

func TestPercentFromObserved_DividesOutZoom(t *testing.T) {
	// 162.4px observed at zoom 2 is 81.2 raw, 10% of 812.
	got := geometry.PercentFromObserved(162.4, 812, 2)
	if !approx(got, 10) {
		t.Fatalf("expected 10%%, got %v", got)
	}
	if geometry.PercentFromObserved(81.2, 812, 0) != geometry.PercentFromObserved(81.2, 812, 1) {
		t.Error("non-positive zoom should behave as zoom 1")
	}
}

func TestToPercent_ZeroReference(t *testing.T) {
	if got := geometry.ToPercent(50, 0); got != 0 {
		t.Errorf("expected 0 for zero reference, got %v", got)
	}
}

func TestFontRoundTrip_IndependentOfCanvasWidth(t *testing.T) {
	for _, canvasWidth := range []float64{400, 812, 1600} {
		n := geometry.Default()
		n.Ref.Width = canvasWidth
		for _, f := range []float64{8, 12, 20, 36.5, 72} {
			pct := n.FontToPercent(f)
			if !approx(pct, f/812*100) {
				t.Errorf("canvas %v: font %v normalized to %v", canvasWidth, f, pct)
			}
			if back := n.FontFromPercent(pct); !approx(back, f) {
				t.Errorf("canvas %v: font %v round-tripped to %v", canvasWidth, f, back)
			}
		}
	}
}

func TestRectRoundTrip(t *testing.T) {
	n := geometry.Default()
	r := geometry.Rect{X: 50, Y: 250, Width: 300, Height: 22.6}
	back := n.RectToPixel(n.RectToPercent(r))
	if !approx(back.X, r.X) || !approx(back.Y, r.Y) || !approx(back.Width, r.Width) || !approx(back.Height, r.Height) {
		t.Fatalf("rect round trip: %+v -> %+v", r, back)
	}
}

// ─────────────────────────────────────────────────────────────
// Scale helpers
// ─────────────────────────────────────────────────────────────

func TestDropScale(t *testing.T) {
	tests := []struct {
		name   string
		canvas geometry.Size
		img    geometry.Size
		want   float64
	}{
		{"wide image on editor canvas", geometry.Size{Width: 1200, Height: 680}, geometry.Size{Width: 2000, Height: 1000}, 0.3},
		{"small image capped at half", geometry.Size{Width: 1200, Height: 680}, geometry.Size{Width: 100, Height: 100}, 0.5},
		{"tall image", geometry.Size{Width: 812, Height: 460}, geometry.Size{Width: 400, Height: 2300}, 0.1},
		{"zero image", geometry.Size{Width: 812, Height: 460}, geometry.Size{}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geometry.DropScale(tt.canvas, tt.img); !approx(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFitScale(t *testing.T) {
	ref := geometry.Size{Width: 812, Height: 460}
	got := geometry.FitScale(geometry.Size{Width: 800, Height: 450}, ref)
	if !approx(got, 450.0/460.0) {
		t.Fatalf("expected height-bound scale %v, got %v", 450.0/460.0, got)
	}
}

func TestContainRect(t *testing.T) {
	box := geometry.Rect{X: 10, Y: 10, Width: 200, Height: 100}
	got := geometry.ContainRect(box, geometry.Size{Width: 100, Height: 100})
	want := geometry.Rect{X: 60, Y: 10, Width: 100, Height: 100}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
