// Package api exposes slides over HTTP: a REST surface for slides and their
// elements, rendered output, and a WebSocket bridge onto a live editing session.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/render"

	"github.com/gorilla/mux"
)

// maxBodyBytes bounds request bodies; slide JSON may embed data URLs.
const maxBodyBytes = 16 << 20

// Config carries the dependencies of a Server. Raster may be nil, in which case
// PNG rendering answers 501.
type Config struct {
	Store  domain.SlideStore
	Images editor.ImageLoader
	Raster *render.Raster
	Layout render.Layout
	Editor editor.Options
}

// Server routes the REST and WebSocket endpoints.
type Server struct {
	cfg    Config
	hub    *hub
	router *mux.Router
}

func NewServer(cfg Config) *Server {
	if cfg.Layout.Reference.Width <= 0 {
		cfg.Layout = render.DefaultLayout()
	}
	s := &Server{cfg: cfg, router: mux.NewRouter()}
	s.hub = newHub(cfg.Store, cfg.Images, cfg.Editor)

	r := s.router
	r.Use(logRequests)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/slides/{slideId}", s.getSlide).Methods(http.MethodGet)
	api.HandleFunc("/slides/{slideId}", s.putSlide).Methods(http.MethodPut)
	api.HandleFunc("/slides/{slideId}/elements", s.listElements).Methods(http.MethodGet)
	api.HandleFunc("/slides/{slideId}/elements", s.createElement).Methods(http.MethodPost)
	api.HandleFunc("/slides/{slideId}/elements/{elementId}", s.updateElement).Methods(http.MethodPut)
	api.HandleFunc("/slides/{slideId}/elements/{elementId}", s.deleteElement).Methods(http.MethodDelete)
	api.HandleFunc("/slides/{slideId}/render.html", s.renderHTML).Methods(http.MethodGet)
	api.HandleFunc("/slides/{slideId}/render.png", s.renderPNG).Methods(http.MethodGet)
	r.HandleFunc("/ws/slides/{slideId}", s.serveWS)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Close ends every live session, flushing their pending edits.
func (s *Server) Close(ctx context.Context) {
	s.hub.closeAll(ctx)
}

// ─────────────────────────────────────────────────────────────
// Slides and elements
// ─────────────────────────────────────────────────────────────

func (s *Server) getSlide(w http.ResponseWriter, r *http.Request) {
	sl, err := s.cfg.Store.GetSlide(r.Context(), mux.Vars(r)["slideId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// putSlide upserts the slide. A body without "slideElements" leaves the elements
// alone; an empty array removes them.
func (s *Server) putSlide(w http.ResponseWriter, r *http.Request) {
	var sl domain.Slide
	if !decodeBody(w, r, &sl) {
		return
	}
	sl.ID = mux.Vars(r)["slideId"]
	if err := s.cfg.Store.SaveSlide(r.Context(), &sl); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) listElements(w http.ResponseWriter, r *http.Request) {
	els, err := s.cfg.Store.ListElements(r.Context(), mux.Vars(r)["slideId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, els)
}

func (s *Server) createElement(w http.ResponseWriter, r *http.Request) {
	var el domain.SlideElement
	if !decodeBody(w, r, &el) {
		return
	}
	res, err := s.cfg.Store.CreateSlideElement(r.Context(), mux.Vars(r)["slideId"], el)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) updateElement(w http.ResponseWriter, r *http.Request) {
	var el domain.SlideElement
	if !decodeBody(w, r, &el) {
		return
	}
	vars := mux.Vars(r)
	res, err := s.cfg.Store.UpdateSlideElement(r.Context(), vars["slideId"], vars["elementId"], el)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) deleteElement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.cfg.Store.DeleteSlideElement(r.Context(), vars["slideId"], vars["elementId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────────

// tree lays out the stored slide for the container given by the width and height
// query parameters, defaulting to the reference canvas.
func (s *Server) tree(w http.ResponseWriter, r *http.Request) (*render.Tree, bool) {
	container := s.cfg.Layout.Reference
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"width", &container.Width}, {"height", &container.Height}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 8192 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid %s %q", p.name, raw)})
			return nil, false
		}
		*p.dst = v
	}

	sl, err := s.cfg.Store.GetSlide(r.Context(), mux.Vars(r)["slideId"])
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s.cfg.Layout.Build(*sl, container), true
}

func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.tree(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteHTML(w, tree); err != nil {
		log.Printf("[API] write html: %v", err)
	}
}

func (s *Server) renderPNG(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Raster == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "raster rendering not configured"})
		return
	}
	tree, ok := s.tree(w, r)
	if !ok {
		return
	}
	img, err := s.cfg.Raster.Render(r.Context(), tree)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		log.Printf("[API] write png: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}

// writeError maps store errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidElement),
		errors.Is(err, domain.ErrUnsupportedElement),
		errors.Is(err, domain.ErrInvalidContent),
		errors.Is(err, domain.ErrInvalidBackground):
		status = http.StatusBadRequest
	default:
		log.Printf("[API] %v", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// statusRecorder captures the status for the request log. It passes hijacking
// through so WebSocket upgrades still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot hijack")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[API] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
