package session_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/session"
	"slides/internal/storage"
)

func newStore(t *testing.T) *storage.SlideStore {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "slides.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s := storage.NewSlideStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func openSession(t *testing.T, store domain.SlideStore, slideID string) *session.Session {
	t.Helper()
	opts := editor.DefaultOptions()
	opts.Debounce = 10 * time.Millisecond
	opts.LoadDelay = 0
	s, err := session.Open(context.Background(), store, nil, slideID, opts)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

// ───── Open ─────

func TestOpen_CreatesMissingSlide(t *testing.T) {
	store := newStore(t)
	openSession(t, store, "fresh")
	if _, err := store.GetSlide(context.Background(), "fresh"); err != nil {
		t.Fatalf("slide not created: %v", err)
	}
}

func TestOpen_MountsStoredElements(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	err := store.SaveSlide(ctx, &domain.Slide{ID: "s1", Elements: []domain.SlideElement{{
		SlideElementType: domain.ElementTypeText,
		PositionX:        10, PositionY: 10, Width: 30, Height: 10,
		Content: domain.StringPtr(`{"text":"hello","fontSize":2.5}`),
	}}})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := openSession(t, store, "s1")
	if n := len(s.Editor.Objects()); n != 1 {
		t.Fatalf("expected 1 mounted object, got %d", n)
	}
}

// ───── Bus round trip ─────

func TestSession_CommandsPersist(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := openSession(t, store, "s1")

	s.Bus.Emit(ctx, domain.CmdAddTextbox, nil)
	s.Editor.Flush(ctx)

	els, err := store.ListElements(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(els) != 1 || els[0].SlideElementType != domain.ElementTypeText {
		t.Fatalf("expected one text element, got %+v", els)
	}

	id := s.Editor.Objects()[0].ID
	s.Bus.Emit(ctx, session.CmdMove, session.Gesture{ID: id, X: 406, Y: 0})
	s.Editor.Flush(ctx)

	els, _ = store.ListElements(ctx, "s1")
	if got := els[0].PositionX; got < 49.99 || got > 50.01 {
		t.Errorf("positionX = %v, want 50", got)
	}

	s.Bus.Emit(ctx, session.CmdRemove, session.Gesture{ID: id})
	s.Editor.Flush(ctx)
	if els, _ := store.ListElements(ctx, "s1"); len(els) != 0 {
		t.Errorf("expected element deleted, got %d", len(els))
	}
}

func TestSession_BackgroundSaved(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := openSession(t, store, "s1")

	s.Bus.Emit(ctx, domain.CmdSetBackgroundColor, domain.Background{Color: "#ff0000"})

	sl, err := store.GetSlide(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sl.Background.Color != "#ff0000" {
		t.Errorf("background = %+v", sl.Background)
	}
	if got := s.Slide().Background.Color; got != "#ff0000" {
		t.Errorf("session slide background = %q", got)
	}
}
