package domain_test

import (
	"errors"
	"testing"

	"slides/internal/domain"
)

func TestRuns_FillsGapsWithDefault(t *testing.T) {
	tc := domain.TextContent{
		Text:       "abcdefgh",
		FontFamily: "Arial",
		FontSize:   2.5,
		FontWeight: "normal",
		Fill:       "#000",
		Styles: []domain.StyleSegment{
			{Start: 2, End: 4, Style: domain.StyleOverride{FontWeight: domain.StringPtr("bold")}},
			{Start: 6, End: 7, Style: domain.StyleOverride{Fill: domain.StringPtr("#f00")}},
		},
	}

	runs := tc.Runs()
	want := []struct {
		text string
		bold bool
		fill string
	}{
		{"ab", false, "#000"},
		{"cd", true, "#000"},
		{"ef", false, "#000"},
		{"g", false, "#f00"},
		{"h", false, "#000"},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i, w := range want {
		r := runs[i]
		if r.Text != w.text || r.Style.Bold() != w.bold || r.Style.Fill != w.fill {
			t.Errorf("run %d: %+v", i, r)
		}
	}
}

func TestRuns_EmptyText(t *testing.T) {
	if runs := (domain.TextContent{}).Runs(); len(runs) != 0 {
		t.Errorf("expected no runs, got %+v", runs)
	}
}

func TestParseTextContent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"text":"hello","fontSize":2,"styles":[{"start":0,"end":2,"style":{"fontWeight":"bold"}}]}`, false},
		{"no styles", `{"text":"hello"}`, false},
		{"not json", `hello`, true},
		{"overlap", `{"text":"hello","styles":[{"start":0,"end":3,"style":{}},{"start":2,"end":4,"style":{}}]}`, true},
		{"past end", `{"text":"hi","styles":[{"start":0,"end":3,"style":{}}]}`, true},
		{"empty range", `{"text":"hi","styles":[{"start":1,"end":1,"style":{}}]}`, true},
		{"hex fill", `{"text":"hi","fill":"#1e293b","textAlign":"center"}`, false},
		{"named fill", `{"text":"hi","fill":"red"}`, true},
		{"css in fill", `{"text":"hi","fill":"#fff;background-image:url(x)"}`, true},
		{"bad align", `{"text":"hi","textAlign":"left;color:red"}`, true},
		{"bad run fill", `{"text":"hi","styles":[{"start":0,"end":1,"style":{"fill":"blue"}}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseTextContent(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidContent) {
				t.Errorf("expected ErrInvalidContent, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	text := domain.SlideElement{SlideElementType: domain.ElementTypeText, Content: domain.StringPtr("{}")}
	if err := text.Validate(); err != nil {
		t.Errorf("text element: %v", err)
	}
	text.SourceURL = domain.StringPtr("https://x")
	if !errors.Is(text.Validate(), domain.ErrInvalidElement) {
		t.Error("text element with sourceUrl should be rejected")
	}
	shape := domain.SlideElement{SlideElementType: "SHAPE"}
	if !errors.Is(shape.Validate(), domain.ErrUnsupportedElement) {
		t.Error("unknown type should be unsupported")
	}
}

func TestValidate_TextContent(t *testing.T) {
	el := domain.SlideElement{SlideElementType: domain.ElementTypeText, Content: domain.StringPtr(`{"text":"x","fill":"url(x)"}`)}
	if !errors.Is(el.Validate(), domain.ErrInvalidContent) {
		t.Error("text element with a non-hex fill should be rejected")
	}
}

func TestValidColorAndAlign(t *testing.T) {
	colors := map[string]bool{
		"#fff":      true,
		"#1E293B":   true,
		"#1e293bcc": true,
		"":          false,
		"fff":       false,
		"red":       false,
		"#ggg":      false,
		"#fff;x:y":  false,
	}
	for c, want := range colors {
		if got := domain.ValidColor(c); got != want {
			t.Errorf("ValidColor(%q) = %v, want %v", c, got, want)
		}
	}
	for _, a := range domain.TextAligns {
		if !domain.ValidAlign(a) {
			t.Errorf("ValidAlign(%q) = false", a)
		}
	}
	if domain.ValidAlign("middle") || domain.ValidAlign("") {
		t.Error("ValidAlign accepted an unknown alignment")
	}
}

func TestBackgroundValidate(t *testing.T) {
	if err := (domain.Background{Color: "#000000", Image: "https://x/bg.png"}).Validate(); err != nil {
		t.Errorf("valid background: %v", err)
	}
	if err := (domain.Background{}).Validate(); err != nil {
		t.Errorf("empty background: %v", err)
	}
	if err := (domain.Background{Color: "black;x:y"}).Validate(); !errors.Is(err, domain.ErrInvalidBackground) {
		t.Errorf("expected ErrInvalidBackground, got %v", err)
	}
}

func TestTransformText(t *testing.T) {
	tests := []struct {
		in, transform, want string
	}{
		{"ab cd", "capitalize", "Ab Cd"},
		{"Ab Cd", "uppercase", "AB CD"},
		{"Ab Cd", "lowercase", "ab cd"},
		{"ab", "none", "ab"},
	}
	for _, tt := range tests {
		got := domain.TransformText(tt.in, tt.transform)
		if got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.transform, tt.in, got, tt.want)
		}
		if len([]rune(got)) != len([]rune(tt.in)) {
			t.Errorf("%s(%q) changed the rune count", tt.transform, tt.in)
		}
	}
}
