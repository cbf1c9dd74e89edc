package mcpserver

import (
	"context"
	"fmt"

	"slides/internal/domain"
	"slides/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSlideTools() {
	// ── set_active_slide ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_slide",
		mcp.WithDescription("Set the active slide for subsequent tool calls. Tools that accept slideId will default to this. The slide is created if it does not exist."),
		mcp.WithString("slideId",
			mcp.Description("ID of the slide to make active"),
			mcp.Required(),
		),
	), s.handleSetActiveSlide)

	// ── get_slide ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_slide",
		mcp.WithDescription("Get the slide with its background and stored elements. Geometry is in percent of the slide."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
	), s.handleGetSlide)

	// ── set_background ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_background",
		mcp.WithDescription("Set the slide background color and/or image. An image is drawn to cover the slide."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("color", mcp.Description("Hex color, e.g. #1e293b")),
		mcp.WithString("image", mcp.Description("Image URL or data URL")),
	), s.handleSetBackground)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change on the slide"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
	), s.handleUndo)
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change on the slide"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
	), s.handleRedo)

	// ── clear_slide (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_slide",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete every element on the slide. The background stays."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearSlide)
}

func (s *Server) handleSetActiveSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slideID := req.GetString("slideId", "")
	if slideID == "" {
		return nil, fmt.Errorf("slideId is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sessionLocked(ctx, slideID); err != nil {
		return nil, err
	}
	s.activeSlideID = slideID
	return textResult(fmt.Sprintf("Active slide set to %s", slideID)), nil
}

func (s *Server) handleGetSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, _ map[string]any) (*mcp.CallToolResult, error) {
		return jsonResult(sess.Slide())
	})
}

func (s *Server) handleSetBackground(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		color, image := getString(args, "color"), getString(args, "image")
		if color == "" && image == "" {
			return nil, fmt.Errorf("color or image is required")
		}
		if color != "" && !sess.Editor.SetBackgroundColor(color) {
			return nil, fmt.Errorf("invalid color %q: use a hex color such as #1e293b", color)
		}
		if image != "" {
			if err := sess.Editor.SetBackgroundImage(ctx, image); err != nil {
				return nil, fmt.Errorf("set background image: %w", err)
			}
		}
		return jsonResult(sess.Slide().Background)
	})
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, _ map[string]any) (*mcp.CallToolResult, error) {
		if !sess.Editor.Undo() {
			return textResult("Nothing to undo"), nil
		}
		return historyResult("Undone", sess), nil
	})
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, _ map[string]any) (*mcp.CallToolResult, error) {
		if !sess.Editor.Redo() {
			return textResult("Nothing to redo"), nil
		}
		return historyResult("Redone", sess), nil
	})
}

func historyResult(verb string, sess *session.Session) *mcp.CallToolResult {
	st := domain.HistoryState{CanUndo: sess.Editor.CanUndo(), CanRedo: sess.Editor.CanRedo()}
	return textResult(fmt.Sprintf("%s (canUndo=%t, canRedo=%t)", verb, st.CanUndo, st.CanRedo))
}

func (s *Server) handleClearSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, _ map[string]any) (*mcp.CallToolResult, error) {
		n := len(sess.Editor.Objects())
		if err := sess.Toolbar.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear slide: %w", err)
		}
		return textResult(fmt.Sprintf("Removed %d elements", n)), nil
	})
}
