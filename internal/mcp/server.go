package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/render"
	"slides/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for slides.
// It exposes tools, resources, and prompts so AI agents can edit a slide the
// same way the canvas does: every tool drives a live editing session.
type Server struct {
	mcp  *server.MCPServer
	deps Deps

	// mu serializes tool calls. Formatting tools select before they act, so two
	// calls must not interleave on one session.
	mu       sync.Mutex
	sessions map[string]*session.Session

	// Active slide context (set by set_active_slide)
	activeSlideID string
}

// Deps holds the dependencies passed from the command layer to the MCP server.
type Deps struct {
	Store  domain.SlideStore
	Images editor.ImageLoader
	Raster *render.Raster // optional; PNG rendering is unavailable without it
	Layout render.Layout
	Editor editor.Options
	Slide  string // initial active slide (optional)
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	if deps.Layout.Reference.Width <= 0 {
		deps.Layout = render.DefaultLayout()
	}
	s := &Server{
		deps:          deps,
		sessions:      make(map[string]*session.Session),
		activeSlideID: deps.Slide,
	}

	s.mcp = server.NewMCPServer(
		"slides-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSlideTools()
	s.registerElementTools()
	s.registerFormatTools()
	s.registerRenderTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Close flushes and closes every open session.
func (s *Server) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close(ctx)
		delete(s.sessions, id)
	}
}

// ── Helpers ────────────────────────────────────────────────

// resolveSlideID returns the slideId from tool args or falls back to activeSlideID.
func (s *Server) resolveSlideID(args map[string]any) (string, error) {
	if id, ok := args["slideId"].(string); ok && id != "" {
		return id, nil
	}
	if s.activeSlideID != "" {
		return s.activeSlideID, nil
	}
	return "", fmt.Errorf("no slideId provided and no active slide set (use set_active_slide first)")
}

// sessionLocked returns the open session for slideID, opening it on first use.
// The caller holds s.mu.
func (s *Server) sessionLocked(ctx context.Context, slideID string) (*session.Session, error) {
	if sess, ok := s.sessions[slideID]; ok {
		return sess, nil
	}
	sess, err := session.Open(ctx, s.deps.Store, s.deps.Images, slideID, s.deps.Editor)
	if err != nil {
		return nil, fmt.Errorf("open slide %s: %w", slideID, err)
	}
	s.sessions[slideID] = sess
	log.Printf("[MCP] opened slide %s", slideID)
	return sess, nil
}

// withSession runs fn against the session the args resolve to and flushes its
// pending writes before returning, so tool results reflect what was stored.
func (s *Server) withSession(ctx context.Context, req mcp.CallToolRequest, fn func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()
	slideID, err := s.resolveSlideID(args)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionLocked(ctx, slideID)
	if err != nil {
		return nil, err
	}
	res, err := fn(sess, args)
	sess.Editor.Flush(ctx)
	return res, err
}

// resolveElement maps an elementId argument to the canvas object id. Both the
// canvas id and the stored slideElementId are accepted.
func resolveElement(sess *session.Session, args map[string]any) (string, error) {
	id, _ := args["elementId"].(string)
	if id == "" {
		return "", fmt.Errorf("elementId is required")
	}
	if sess.Editor.Object(id) != nil {
		return id, nil
	}
	if local, ok := sess.Editor.LocalID(id); ok {
		return local, nil
	}
	return "", fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolPtr(v bool) *bool { return &v }
