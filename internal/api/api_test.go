package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slides/internal/api"
	"slides/internal/assets"
	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/render"
	"slides/internal/storage"

	"github.com/gorilla/websocket"
)

func newServer(t *testing.T) (*httptest.Server, *storage.SlideStore) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "slides.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store := storage.NewSlideStore(db)
	loader := assets.NewLoader("")
	raster, err := render.NewRaster(loader)
	if err != nil {
		t.Fatalf("raster: %v", err)
	}
	opts := editor.DefaultOptions()
	opts.Debounce = 10 * time.Millisecond
	srv := api.NewServer(api.Config{Store: store, Images: loader, Raster: raster, Editor: opts})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close(context.Background())
		store.Close()
	})
	return ts, store
}

func textElement() domain.SlideElement {
	return domain.SlideElement{
		SlideElementType: domain.ElementTypeText,
		PositionX:        10, PositionY: 10, Width: 40, Height: 20,
		Content: domain.StringPtr(`{"text":"Hello","fontFamily":"Arial","fontSize":2.5,"fill":"#000000"}`),
	}
}

// ───── REST through Client ─────

func TestClient_ElementLifecycle(t *testing.T) {
	ctx := context.Background()
	ts, _ := newServer(t)
	c := api.NewClient(ts.URL)

	if _, err := c.GetSlide(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing slide: expected ErrNotFound, got %v", err)
	}
	sl := &domain.Slide{ID: "s1", Background: domain.Background{Color: "#eeeeee"}}
	if err := c.SaveSlide(ctx, sl); err != nil {
		t.Fatalf("save: %v", err)
	}

	created, err := c.CreateSlideElement(ctx, "s1", textElement())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SlideElementID == "" {
		t.Fatal("no id assigned")
	}

	upd := textElement()
	upd.Rotation = 30
	res, err := c.UpdateSlideElement(ctx, "s1", created.SlideElementID, upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Rotation != 30 || res.SlideElementID != created.SlideElementID {
		t.Errorf("update result %+v", res)
	}

	got, err := c.GetSlide(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Background.Color != "#eeeeee" || len(got.Elements) != 1 || got.Elements[0].Rotation != 30 {
		t.Errorf("slide = %+v", got)
	}

	if err := c.DeleteSlideElement(ctx, "s1", created.SlideElementID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.DeleteSlideElement(ctx, "s1", created.SlideElementID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	els, err := c.ListElements(ctx, "s1")
	if err != nil || len(els) != 0 {
		t.Errorf("list = %v, %v", els, err)
	}
}

func TestServer_StatusCodes(t *testing.T) {
	ts, store := newServer(t)
	store.SaveSlide(context.Background(), &domain.Slide{ID: "s1"})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing slide", http.MethodGet, "/api/slides/nope", "", http.StatusNotFound},
		{"bad json", http.MethodPost, "/api/slides/s1/elements", "{", http.StatusBadRequest},
		{"invalid element", http.MethodPost, "/api/slides/s1/elements", `{"slideElementType":"TEXT"}`, http.StatusBadRequest},
		{"unsupported type", http.MethodPost, "/api/slides/s1/elements", `{"slideElementType":"VIDEO"}`, http.StatusBadRequest},
		{"create on missing slide", http.MethodPost, "/api/slides/nope/elements", `{"slideElementType":"IMAGE","sourceUrl":"a.png"}`, http.StatusNotFound},
		{"update missing element", http.MethodPut, "/api/slides/s1/elements/x", `{"slideElementType":"IMAGE","sourceUrl":"a.png"}`, http.StatusNotFound},
		{"bad render size", http.MethodGet, "/api/slides/s1/render.html?width=-1", "", http.StatusBadRequest},
		{"wrong method", http.MethodPatch, "/api/slides/s1", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

// ───── Rendering ─────

func TestServer_RenderHTML(t *testing.T) {
	ts, store := newServer(t)
	store.SaveSlide(context.Background(), &domain.Slide{ID: "s1", Elements: []domain.SlideElement{textElement()}})

	resp, err := http.Get(ts.URL + "/api/slides/s1/render.html?width=406&height=230")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q", ct)
	}
	for _, want := range []string{`class="slide-container"`, "width:406px", ">Hello</span>"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestServer_RenderPNG(t *testing.T) {
	ts, store := newServer(t)
	store.SaveSlide(context.Background(), &domain.Slide{ID: "s1", Background: domain.Background{Color: "#00ff00"}})

	resp, err := http.Get(ts.URL + "/api/slides/s1/render.png?width=200&height=100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("size = %v", b)
	}
	r, g, _, _ := img.At(100, 50).RGBA()
	if g>>8 != 0xff || r>>8 != 0 {
		t.Errorf("center pixel not green: r=%d g=%d", r>>8, g>>8)
	}
}

// ───── WebSocket ─────

func TestServer_WebSocketSession(t *testing.T) {
	ts, store := newServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/slides/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first api.Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if first.Event != api.EventSlideState {
		t.Fatalf("first event = %q", first.Event)
	}
	var sl domain.Slide
	if err := json.Unmarshal(first.Data, &sl); err != nil || sl.ID != "live" {
		t.Fatalf("greeting slide = %+v, %v", sl, err)
	}

	if err := conn.WriteJSON(api.Message{Event: domain.CmdAddTextbox}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var created domain.ElementCreated
	for created.Element.SlideElementID == "" {
		var msg api.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", domain.EventElementCreated, err)
		}
		if msg.Event == domain.EventElementCreated {
			if err := json.Unmarshal(msg.Data, &created); err != nil {
				t.Fatalf("decode: %v", err)
			}
		}
	}

	els, err := store.ListElements(context.Background(), "live")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(els) != 1 || els[0].SlideElementID != created.Element.SlideElementID {
		t.Errorf("stored elements = %+v", els)
	}
}
