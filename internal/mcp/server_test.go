package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slides/internal/assets"
	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/geometry"
	"slides/internal/render"
	"slides/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) (*Server, *storage.SlideStore) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "slides.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store := storage.NewSlideStore(db)
	raster, err := render.NewRaster(assets.NewLoader(""))
	if err != nil {
		t.Fatalf("raster: %v", err)
	}
	opts := editor.DefaultOptions()
	opts.Debounce = 10 * time.Millisecond
	opts.LoadDelay = 0
	s := New(Deps{Store: store, Raster: raster, Editor: opts})
	t.Cleanup(func() {
		s.Close(context.Background())
		store.Close()
	})
	return s, store
}

func call(t *testing.T, h handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}})
	if err != nil {
		t.Fatalf("tool call %v: %v", args, err)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(text(t, res)), &v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return v
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

// ───── Slide context ─────

func TestResolveSlide_NoActiveSlide(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.handleListElements(context.Background(), mcp.CallToolRequest{})
	if err == nil || !strings.Contains(err.Error(), "set_active_slide") {
		t.Fatalf("expected active slide error, got %v", err)
	}
}

func TestSetActiveSlide_CreatesSlide(t *testing.T) {
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "deck-1"})
	if _, err := store.GetSlide(context.Background(), "deck-1"); err != nil {
		t.Fatalf("slide not created: %v", err)
	}
	list := decode[[]elementSummary](t, call(t, s.handleListElements, nil))
	if len(list) != 0 {
		t.Errorf("expected empty slide, got %+v", list)
	}
}

// ───── Elements ─────

func TestAddTextbox_Persists(t *testing.T) {
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})

	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, map[string]any{"text": "Hello", "x": 10.0, "y": 20.0}))
	if sum.Text != "Hello" || !near(sum.X, 10) || !near(sum.Y, 20) {
		t.Errorf("summary = %+v", sum)
	}
	if sum.ElementID == "" {
		t.Error("expected slideElementId after flush")
	}

	els, err := store.ListElements(context.Background(), "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 stored element, got %d", len(els))
	}
	if !near(els[0].PositionX, 10) || !near(els[0].PositionY, 20) {
		t.Errorf("stored position = (%v, %v)", els[0].PositionX, els[0].PositionY)
	}
	var tc domain.TextContent
	if err := json.Unmarshal([]byte(*els[0].Content), &tc); err != nil || tc.Text != "Hello" {
		t.Errorf("stored content = %s, %v", *els[0].Content, err)
	}
}

func TestMoveElement_ByStoredIDAndUndo(t *testing.T) {
	ctx := context.Background()
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, nil))

	call(t, s.handleMoveElement, map[string]any{"elementId": sum.ElementID, "x": 50.0, "y": 25.0})
	els, _ := store.ListElements(ctx, "s1")
	if len(els) != 1 || !near(els[0].PositionX, 50) || !near(els[0].PositionY, 25) {
		t.Fatalf("after move: %+v", els)
	}

	if got := text(t, call(t, s.handleUndo, nil)); !strings.HasPrefix(got, "Undone") {
		t.Fatalf("undo result %q", got)
	}
	els, _ = store.ListElements(ctx, "s1")
	if len(els) != 1 || !near(els[0].PositionX, sum.X) {
		t.Errorf("after undo positionX = %v, want %v", els[0].PositionX, sum.X)
	}
}

func TestElementTools_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})

	tests := []struct {
		name string
		h    handler
		args map[string]any
	}{
		{"missing id", s.handleMoveElement, map[string]any{"x": 1.0, "y": 1.0}},
		{"unknown id", s.handleRotateElement, map[string]any{"elementId": "nope", "angle": 10.0}},
		{"unknown animation", s.handleSetAnimation, map[string]any{"elementId": "nope", "animation": "Spin"}},
		{"empty image", s.handleAddImage, map[string]any{"src": ""}},
		{"no background", s.handleSetBackground, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.h(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: tt.args}}); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := s.handleDeleteElement(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]any{"elementId": "nope"}}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete unknown: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteElement(t *testing.T) {
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, nil))

	call(t, s.handleDeleteElement, map[string]any{"elementId": sum.ID})
	if els, _ := store.ListElements(context.Background(), "s1"); len(els) != 0 {
		t.Errorf("expected no stored elements, got %d", len(els))
	}
}

func TestSetAnimation_Stored(t *testing.T) {
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, nil))

	call(t, s.handleSetAnimation, map[string]any{"elementId": sum.ID, "animation": "Fade", "exit": true})
	els, _ := store.ListElements(context.Background(), "s1")
	if len(els) != 1 || els[0].ExitAnimation == nil || *els[0].ExitAnimation != "Fade" {
		t.Errorf("stored exit animation = %+v", els)
	}
	if els[0].EntryAnimation != nil {
		t.Errorf("entry animation should be unset, got %q", *els[0].EntryAnimation)
	}
}

// ───── Formatting ─────

func TestFormatText_WholeBox(t *testing.T) {
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, nil))

	st := decode[domain.FormatState](t, call(t, s.handleFormatText, map[string]any{
		"elementId": sum.ID, "toggle": "bold", "fontSize": 30.0,
	}))
	if !st.Bold || st.FontSize != 30 {
		t.Errorf("format state = %+v", st)
	}

	els, _ := store.ListElements(context.Background(), "s1")
	var tc domain.TextContent
	if err := json.Unmarshal([]byte(*els[0].Content), &tc); err != nil {
		t.Fatalf("content: %v", err)
	}
	if tc.FontWeight != "bold" {
		t.Errorf("fontWeight = %q", tc.FontWeight)
	}
	if want := geometry.FontToPercent(30, geometry.FontReferenceWidth); !near(tc.FontSize, want) {
		t.Errorf("fontSize = %v, want %v", tc.FontSize, want)
	}
}

func TestFormatText_RejectsBadSize(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, nil))

	_, err := s.handleFormatText(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{
		Arguments: map[string]any{"elementId": sum.ID, "fontSize": 200.0},
	}})
	if err == nil || !strings.Contains(err.Error(), "fontSize") {
		t.Errorf("expected fontSize rejection, got %v", err)
	}
}

// ───── Rendering ─────

func TestRenderSlide(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	call(t, s.handleAddTextbox, map[string]any{"text": "Quarterly"})

	html := text(t, call(t, s.handleRenderSlide, map[string]any{"format": "html"}))
	if !strings.Contains(html, "slide-container") || !strings.Contains(html, "Quarterly") {
		t.Errorf("html missing content: %s", html)
	}

	res := call(t, s.handleRenderSlide, map[string]any{"width": 406.0, "height": 230.0})
	ic, ok := res.Content[0].(mcp.ImageContent)
	if !ok || ic.MIMEType != "image/png" {
		t.Fatalf("expected png content, got %#v", res.Content[0])
	}
	data, err := base64.StdEncoding.DecodeString(ic.Data)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 406 || b.Dy() != 230 {
		t.Errorf("size = %v", b)
	}

	if _, err := s.handleRenderSlide(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{
		Arguments: map[string]any{"format": "svg"},
	}}); err == nil {
		t.Error("expected error for unknown format")
	}
}

// ───── Resources ─────

func TestSlideResource(t *testing.T) {
	s, store := newTestServer(t)
	store.SaveSlide(context.Background(), &domain.Slide{ID: "s1", Background: domain.Background{Color: "#123456"}})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "slides://slide/s1"
	contents, err := s.handleSlideResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	if !strings.Contains(tc.Text, "#123456") {
		t.Errorf("resource = %s", tc.Text)
	}

	req.Params.URI = "slides://other/s1"
	if _, err := s.handleSlideResource(context.Background(), req); err == nil {
		t.Error("expected error for bad URI")
	}
}

func TestToggleStyle_Range(t *testing.T) {
	s, store := newTestServer(t)
	call(t, s.handleSetActiveSlide, map[string]any{"slideId": "s1"})
	sum := decode[elementSummary](t, call(t, s.handleAddTextbox, map[string]any{"text": "Hello world"}))

	call(t, s.handleToggleStyle, map[string]any{"elementId": sum.ID, "style": "italic", "start": 0.0, "end": 5.0})

	els, _ := store.ListElements(context.Background(), "s1")
	var tc domain.TextContent
	if err := json.Unmarshal([]byte(*els[0].Content), &tc); err != nil {
		t.Fatalf("content: %v", err)
	}
	if tc.FontStyle == "italic" {
		t.Error("range toggle changed the whole-box style")
	}
	if len(tc.Styles) == 0 {
		t.Error("expected a style segment for the range")
	}

	if _, err := s.handleToggleStyle(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{
		Arguments: map[string]any{"elementId": sum.ID, "style": "strike"},
	}}); err == nil {
		t.Error("expected unknown style to be rejected")
	}
}
