// Package session wires one live slide: a bus, the editor bound to it, the
// toolbar bound to it and persistence of slide-level changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"slides/internal/bus"
	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/toolbar"
)

const saveTimeout = 10 * time.Second

// Session is one slide open for editing.
type Session struct {
	Bus     *bus.Bus
	Editor  *editor.Editor
	Toolbar *toolbar.Toolbar

	store  domain.SlideStore
	mu     sync.Mutex
	slide  domain.Slide // slide row as last saved, without elements
	unbind []func()
}

// Open loads slideID from store, creating an empty slide when it does not exist,
// and mounts it. images may be nil.
func Open(ctx context.Context, store domain.SlideStore, images editor.ImageLoader, slideID string, opts editor.Options) (*Session, error) {
	slide, err := store.GetSlide(ctx, slideID)
	if errors.Is(err, domain.ErrNotFound) {
		slide = &domain.Slide{ID: slideID}
		if err := store.SaveSlide(ctx, slide); err != nil {
			return nil, fmt.Errorf("create slide: %w", err)
		}
		log.Printf("[Session] created slide %s", slideID)
	} else if err != nil {
		return nil, fmt.Errorf("load slide: %w", err)
	}

	b := bus.New()
	ed := editor.New(slideID, store, b, images, opts)
	tb := toolbar.New(ed, b)
	s := &Session{Bus: b, Editor: ed, Toolbar: tb, store: store}
	s.slide = *slide
	s.slide.Elements = nil

	ed.OnUpdate(s.onUpdate)
	s.unbind = []func(){ed.Bind(b), tb.Bind(b), s.bindGestures()}

	source := func(ctx context.Context) ([]domain.SlideElement, error) {
		return store.ListElements(ctx, slideID)
	}
	if err := ed.Mount(ctx, *slide, source); err != nil {
		s.Close(context.Background())
		return nil, err
	}
	ed.Start(context.WithoutCancel(ctx))
	return s, nil
}

// Slide returns the slide row together with the editor's persisted elements.
func (s *Session) Slide() domain.Slide {
	s.mu.Lock()
	sl := s.slide
	s.mu.Unlock()
	live := s.Editor.Slide()
	sl.Background = live.Background
	sl.Elements = live.Elements
	return sl
}

// onUpdate persists background changes. Element changes already went through the
// element API.
func (s *Session) onUpdate(u domain.SlideUpdate) {
	if u.Background == nil {
		return
	}
	s.mu.Lock()
	s.slide.Background = *u.Background
	row := s.slide
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.store.SaveSlide(ctx, &row); err != nil {
		log.Printf("[Session] save background of %s: %v", row.ID, err)
	}
}

// Close unbinds the session and flushes the editor.
func (s *Session) Close(ctx context.Context) {
	for _, off := range s.unbind {
		off()
	}
	s.unbind = nil
	s.Editor.Close(ctx)
}
