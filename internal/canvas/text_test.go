package canvas_test

import (
	"testing"

	"slides/internal/canvas"
	"slides/internal/domain"
)

func TestSetSelectionStyles_RemovesRedundantOverrides(t *testing.T) {
	tb := canvas.NewTextbox("Hello world", 0, 0, 300, defaultStyle())

	tb.SetSelectionStyles(domain.StyleOverride{FontWeight: domain.StringPtr("bold")}, 0, 5)
	if len(tb.CharStyles) != 5 {
		t.Fatalf("expected 5 overrides, got %d", len(tb.CharStyles))
	}

	tb.SetSelectionStyles(domain.StyleOverride{FontWeight: domain.StringPtr("normal")}, 0, 5)
	if len(tb.CharStyles) != 0 {
		t.Fatalf("overrides equal to the default should be dropped, got %v", tb.CharStyles)
	}
}

func TestSetSelectionStyles_ClampsRange(t *testing.T) {
	tb := canvas.NewTextbox("abc", 0, 0, 300, defaultStyle())
	tb.SetSelectionStyles(domain.StyleOverride{Underline: domain.BoolPtr(true)}, -4, 99)
	for i := 0; i < 3; i++ {
		if !tb.StyleAt(i).Underline {
			t.Errorf("rune %d not underlined", i)
		}
	}
	if _, ok := tb.CharStyles[3]; ok {
		t.Error("override written past the end of the text")
	}
}

func TestRemoveStyleProperty(t *testing.T) {
	tb := canvas.NewTextbox("abcd", 0, 0, 300, defaultStyle())
	tb.SetSelectionStyles(domain.StyleOverride{
		FontWeight: domain.StringPtr("bold"),
		Fill:       domain.StringPtr("#ff0000"),
	}, 1, 3)

	tb.RemoveStyleProperty("fontWeight")

	for i := 0; i < 4; i++ {
		if tb.StyleAt(i).Bold() {
			t.Errorf("rune %d still bold", i)
		}
	}
	if tb.StyleAt(1).Fill != "#ff0000" {
		t.Error("unrelated override was stripped")
	}
}

func TestSetDefaultStyle_PreservesEffectiveOverrides(t *testing.T) {
	tb := canvas.NewTextbox("abcd", 0, 0, 300, defaultStyle())
	tb.SetSelectionStyles(domain.StyleOverride{FontWeight: domain.StringPtr("bold")}, 0, 2)

	s := tb.Style
	s.FontWeight = "bold"
	tb.SetDefaultStyle(s)

	for i := 0; i < 4; i++ {
		if !tb.StyleAt(i).Bold() && i < 2 {
			t.Errorf("rune %d lost its bold", i)
		}
	}
	if tb.StyleAt(3).Bold() {
		t.Error("rune 3 should keep its normal weight until the property is stripped")
	}
	tb.RemoveStyleProperty("fontWeight")
	if !tb.StyleAt(3).Bold() {
		t.Error("after stripping, the default should apply uniformly")
	}
}

func TestTransformRange(t *testing.T) {
	tests := []struct {
		transform  string
		start, end int
		want       string
	}{
		{canvas.TransformUppercase, 0, 5, "HELLO world"},
		{canvas.TransformLowercase, 0, 11, "hello world"},
		{canvas.TransformCapitalize, 0, 11, "Hello World"},
		{canvas.TransformCapitalize, 7, 11, "hello world"},
	}
	for _, tt := range tests {
		tb := canvas.NewTextbox("hello world", 0, 0, 300, defaultStyle())
		tb.TransformRange(tt.transform, tt.start, tt.end)
		if tb.Text != tt.want {
			t.Errorf("%s [%d,%d): got %q, want %q", tt.transform, tt.start, tt.end, tb.Text, tt.want)
		}
	}
}

func TestLayoutText_GrowsWithLines(t *testing.T) {
	tb := canvas.NewTextbox("one", 0, 0, 300, defaultStyle())
	single := tb.Height
	tb.SetText("one\ntwo\nthree")
	if tb.Height != single*3 {
		t.Errorf("expected height %v for three lines, got %v", single*3, tb.Height)
	}
}

func TestSetText_DropsOverridesPastEnd(t *testing.T) {
	tb := canvas.NewTextbox("abcdef", 0, 0, 300, defaultStyle())
	tb.SetSelectionStyles(domain.StyleOverride{FontStyle: domain.StringPtr("italic")}, 2, 6)
	tb.SetText("abc")
	if len(tb.CharStyles) != 1 {
		t.Errorf("expected 1 override to survive, got %d", len(tb.CharStyles))
	}
}
