package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"slides/internal/domain"
	"slides/internal/storage"
)

func newStore(t *testing.T) *storage.SlideStore {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "data", "slides.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := storage.NewSlideStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func textElement(layer int) domain.SlideElement {
	return domain.SlideElement{
		SlideElementType: domain.ElementTypeText,
		PositionX:        10,
		PositionY:        20,
		Width:            30,
		Height:           15,
		LayerOrder:       layer,
		Content:          domain.StringPtr(`{"text":"hi"}`),
	}
}

func imageElement(layer int) domain.SlideElement {
	return domain.SlideElement{
		SlideElementType: domain.ElementTypeImage,
		Width:            50,
		Height:           50,
		LayerOrder:       layer,
		SourceURL:        domain.StringPtr("https://example.com/a.png"),
	}
}

// ───── Slides ─────

func TestSlideStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	sl := &domain.Slide{
		ID:                 "s1",
		Background:         domain.Background{Color: "#ffffff", Image: "bg.png"},
		TransitionEffect:   "fade",
		TransitionDuration: 0.5,
	}
	if err := s.SaveSlide(ctx, sl); err != nil {
		t.Fatalf("save: %v", err)
	}
	if sl.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := s.GetSlide(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Background != sl.Background || got.TransitionEffect != "fade" || got.TransitionDuration != 0.5 {
		t.Errorf("got %+v", got)
	}
	if got.Elements == nil || len(got.Elements) != 0 {
		t.Errorf("expected empty element list, got %v", got.Elements)
	}

	sl.Background.Color = "#000000"
	if err := s.SaveSlide(ctx, sl); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = s.GetSlide(ctx, "s1")
	if got.Background.Color != "#000000" {
		t.Errorf("color = %q after update", got.Background.Color)
	}
}

func TestSlideStore_GetMissing(t *testing.T) {
	s := newStore(t)
	if _, err := s.GetSlide(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSlideStore_SaveReplacesElements(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	sl := &domain.Slide{ID: "s1", Elements: []domain.SlideElement{textElement(0), imageElement(1)}}
	if err := s.SaveSlide(ctx, sl); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, el := range sl.Elements {
		if el.SlideElementID == "" {
			t.Fatal("element id not assigned")
		}
	}

	sl.Elements = sl.Elements[1:]
	if err := s.SaveSlide(ctx, sl); err != nil {
		t.Fatalf("resave: %v", err)
	}
	els, err := s.ListElements(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(els) != 1 || els[0].SlideElementType != domain.ElementTypeImage {
		t.Fatalf("elements = %+v", els)
	}

	// nil Elements leaves them alone
	sl.Elements = nil
	if err := s.SaveSlide(ctx, sl); err != nil {
		t.Fatalf("save: %v", err)
	}
	if els, _ := s.ListElements(ctx, "s1"); len(els) != 1 {
		t.Errorf("expected 1 element, got %d", len(els))
	}
}

func TestSlideStore_SaveRejectsInvalidElement(t *testing.T) {
	bad := textElement(0)
	bad.SourceURL = domain.StringPtr("x.png")
	s := newStore(t)
	err := s.SaveSlide(context.Background(), &domain.Slide{ID: "s1", Elements: []domain.SlideElement{bad}})
	if !errors.Is(err, domain.ErrInvalidElement) {
		t.Fatalf("expected ErrInvalidElement, got %v", err)
	}
	if _, err := s.GetSlide(context.Background(), "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("slide should have been rolled back, got %v", err)
	}
}

func TestSlideStore_SaveRejectsInvalidStyleValues(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.SaveSlide(ctx, &domain.Slide{ID: "s1", Background: domain.Background{Color: "red;background-image:url(x)"}})
	if !errors.Is(err, domain.ErrInvalidBackground) {
		t.Fatalf("expected ErrInvalidBackground, got %v", err)
	}

	bad := textElement(0)
	bad.Content = domain.StringPtr(`{"text":"hi","fill":"#fff;display:none"}`)
	err = s.SaveSlide(ctx, &domain.Slide{ID: "s2", Elements: []domain.SlideElement{bad}})
	if !errors.Is(err, domain.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

// ───── Elements ─────

func TestSlideStore_ElementLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if err := s.SaveSlide(ctx, &domain.Slide{ID: "s1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload := textElement(2)
	payload.EntryAnimation = domain.StringPtr("fadeIn")
	payload.EntryAnimationDuration = domain.FloatPtr(0.8)
	created, err := s.CreateSlideElement(ctx, "s1", payload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SlideElementID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("server fields missing: %+v", created)
	}
	img, err := s.CreateSlideElement(ctx, "s1", imageElement(1))
	if err != nil {
		t.Fatalf("create image: %v", err)
	}

	els, err := s.ListElements(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(els) != 2 || els[0].SlideElementID != img.SlideElementID {
		t.Fatalf("expected image first by layer order, got %+v", els)
	}
	text := els[1]
	if text.EntryAnimation == nil || *text.EntryAnimation != "fadeIn" || *text.EntryAnimationDuration != 0.8 {
		t.Errorf("entry animation not round-tripped: %+v", text)
	}
	if text.ExitAnimation != nil || text.SourceURL != nil {
		t.Errorf("unset fields should stay nil: %+v", text)
	}

	upd := payload
	upd.PositionX = 55
	upd.EntryAnimation = nil
	upd.EntryAnimationDuration = nil
	res, err := s.UpdateSlideElement(ctx, "s1", created.SlideElementID, upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.SlideElementID != created.SlideElementID || !res.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("update result %+v", res)
	}
	els, _ = s.ListElements(ctx, "s1")
	if els[1].PositionX != 55 || els[1].EntryAnimation != nil {
		t.Errorf("update not persisted: %+v", els[1])
	}

	if err := s.DeleteSlideElement(ctx, "s1", created.SlideElementID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteSlideElement(ctx, "s1", created.SlideElementID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateSlideElement(ctx, "s1", created.SlideElementID, upd); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update after delete: expected ErrNotFound, got %v", err)
	}
}

func TestSlideStore_CreateErrors(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if _, err := s.CreateSlideElement(ctx, "missing", textElement(0)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing slide: got %v", err)
	}
	s.SaveSlide(ctx, &domain.Slide{ID: "s1"})

	tests := []struct {
		name string
		el   domain.SlideElement
		want error
	}{
		{"text without content", domain.SlideElement{SlideElementType: domain.ElementTypeText}, domain.ErrInvalidElement},
		{"image without source", domain.SlideElement{SlideElementType: domain.ElementTypeImage}, domain.ErrInvalidElement},
		{"unknown type", domain.SlideElement{SlideElementType: "VIDEO"}, domain.ErrUnsupportedElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateSlideElement(ctx, "s1", tt.el); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSlideStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slides.db")
	db, err := storage.New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := storage.NewSlideStore(db)
	s.SaveSlide(ctx, &domain.Slide{ID: "s1", Elements: []domain.SlideElement{textElement(0)}})
	s.Close()

	db, err = storage.New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s = storage.NewSlideStore(db)
	defer s.Close()
	got, err := s.GetSlide(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Elements) != 1 {
		t.Errorf("expected 1 element after reopen, got %d", len(got.Elements))
	}
}

// ───── Open & dialects ─────

func TestOpen_DefaultsToSQLite(t *testing.T) {
	st, err := storage.Open(context.Background(), storage.Config{Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*storage.SlideStore); !ok {
		t.Errorf("expected *SlideStore, got %T", st)
	}
	if _, err := storage.Open(context.Background(), storage.Config{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := `UPDATE t SET a = ?, b = ? WHERE id = ?`
	if got := storage.Postgres.Rebind(q); got != `UPDATE t SET a = $1, b = $2 WHERE id = $3` {
		t.Errorf("postgres: %s", got)
	}
	for _, d := range []storage.Dialect{storage.SQLite, storage.MySQL} {
		if got := d.Rebind(q); got != q {
			t.Errorf("%s rewrote query: %s", d, got)
		}
	}
}

func TestDSNBuilders(t *testing.T) {
	cfg := storage.Config{Host: "db", Name: "slides", User: "u", Password: "p"}
	if got := storage.BuildMySQLDSN(cfg); got != "u:p@tcp(db:3306)/slides?parseTime=true&charset=utf8mb4" {
		t.Errorf("mysql: %s", got)
	}
	if got := storage.BuildPostgresDSN(cfg); got != "host=db port=5432 user=u password=p dbname=slides sslmode=disable" {
		t.Errorf("postgres: %s", got)
	}
	cfg.DSN = "explicit"
	if storage.BuildMySQLDSN(cfg) != "explicit" || storage.BuildPostgresDSN(cfg) != "explicit" {
		t.Error("DSN should take precedence")
	}
}

func TestBuildMongoURI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		uri, db string
	}{
		{"defaults", storage.Config{}, "mongodb://localhost:27017", "slides"},
		{"credentials", storage.Config{Host: "h", Port: 1, User: "u", Password: "p", Name: "n"}, "mongodb://u:p@h:1", "n"},
		{"atlas placeholder", storage.Config{MongoURI: "mongodb+srv://u:<password>@c.net/deck?w=1", Password: "pw"}, "mongodb+srv://u:pw@c.net/deck?w=1", "deck"},
		{"explicit database", storage.Config{MongoURI: "mongodb://h/deck", MongoDatabase: "other"}, "mongodb://h/deck", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, db := storage.BuildMongoURI(tt.cfg)
			if uri != tt.uri || db != tt.db {
				t.Errorf("got (%s, %s), want (%s, %s)", uri, db, tt.uri, tt.db)
			}
		})
	}
}
