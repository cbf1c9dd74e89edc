package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"slides/internal/animation"
	"slides/internal/canvas"
	"slides/internal/domain"
	"slides/internal/geometry"
	"slides/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

// elementSummary is an element as agents see it. Geometry is in percent of the
// slide, like the stored form.
type elementSummary struct {
	ID             string      `json:"id"`
	ElementID      string      `json:"slideElementId,omitempty"`
	Type           canvas.Kind `json:"type"`
	X              float64     `json:"x"`
	Y              float64     `json:"y"`
	Width          float64     `json:"width"`
	Height         float64     `json:"height"`
	Angle          float64     `json:"angle,omitempty"`
	Text           string      `json:"text,omitempty"`
	Src            string      `json:"src,omitempty"`
	DisplayOrder   int         `json:"displayOrder"`
	EntryAnimation *string     `json:"entryAnimation,omitempty"`
	ExitAnimation  *string     `json:"exitAnimation,omitempty"`
}

func summarize(sess *session.Session, o *canvas.Object) elementSummary {
	n := sess.Editor.Normalizer()
	box := n.RectToPercent(o.Bounds())
	sum := elementSummary{
		ID:             o.ID,
		Type:           o.Kind,
		X:              box.X,
		Y:              box.Y,
		Width:          box.Width,
		Height:         box.Height,
		Angle:          o.Angle,
		Text:           o.Text,
		Src:            o.Src,
		DisplayOrder:   o.DisplayOrder,
		EntryAnimation: o.EntryAnimation,
		ExitAnimation:  o.ExitAnimation,
	}
	sum.ElementID, _ = sess.Editor.ServerID(o.ID)
	if len(sum.Src) > 120 {
		sum.Src = sum.Src[:120] + "..."
	}
	return sum
}

// toObserved converts a percent argument to surface pixels for the gesture API.
func toObserved(n geometry.Normalizer, pct, ref float64) float64 {
	return geometry.ObservedFromPercent(pct, ref, n.Zoom)
}

func (s *Server) registerElementTools() {
	// ── list_elements ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements on a slide, bottom layer first. Geometry is in percent of the slide."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("type", mcp.Description("Filter by type: textbox, image, rect, circle, triangle, path, group (optional)")),
	), s.handleListElements)

	// ── add_textbox ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_textbox",
		mcp.WithDescription("Add a textbox. It starts as \"New Text\" in 20px Arial unless text is given."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("text", mcp.Description("Initial text (optional)")),
		mcp.WithNumber("x", mcp.Description("Left edge in percent of the slide width (optional)")),
		mcp.WithNumber("y", mcp.Description("Top edge in percent of the slide height (optional)")),
	), s.handleAddTextbox)

	// ── add_image ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Add an image from a URL, data URL or local asset path"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("src", mcp.Description("Image source"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Left edge in percent of the slide width (optional)")),
		mcp.WithNumber("y", mcp.Description("Top edge in percent of the slide height (optional)")),
	), s.handleAddImage)

	// ── move_element ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element. Coordinates are the top-left corner in percent of the slide."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New left edge in percent"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New top edge in percent"), mcp.Required()),
	), s.handleMoveElement)

	// ── resize_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_element",
		mcp.WithDescription("Resize an element. Sizes are in percent of the slide."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width in percent"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height in percent"), mcp.Required()),
	), s.handleResizeElement)

	// ── rotate_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rotate_element",
		mcp.WithDescription("Set the rotation of an element in degrees"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithNumber("angle", mcp.Description("Angle in degrees"), mcp.Required()),
	), s.handleRotateElement)

	// ── set_text ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_text",
		mcp.WithDescription("Replace the text of a textbox"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text"), mcp.Required()),
	), s.handleSetText)

	// ── arrange_element ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_element",
		mcp.WithDescription("Change the stacking of an element"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithString("action",
			mcp.Description("bringToFront, bringForward, sendBackwards or sendToBack"),
			mcp.Required(),
		),
	), s.handleArrangeElement)

	// ── align_element ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("align_element",
		mcp.WithDescription("Center an element on the slide"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithString("mode", mcp.Description("center-h, center-v or center-both"), mcp.Required()),
	), s.handleAlignElement)

	// ── set_animation ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_animation",
		mcp.WithDescription("Set the entry or exit animation of an element: "+strings.Join(animation.Names(), ", ")),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithString("animation", mcp.Description("Animation name"), mcp.Required()),
		mcp.WithBoolean("exit", mcp.Description("Set the exit animation instead of the entry one")),
		mcp.WithNumber("duration", mcp.Description("Duration override (optional)")),
		mcp.WithNumber("delay", mcp.Description("Delay (optional)")),
	), s.handleSetAnimation)

	// ── delete_element (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete an element from the slide"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		filter := getString(args, "type")
		out := []elementSummary{}
		for _, o := range sess.Editor.Objects() {
			if filter != "" && string(o.Kind) != filter {
				continue
			}
			out = append(out, summarize(sess, o))
		}
		return jsonResult(out)
	})
}

func (s *Server) handleAddTextbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, ok := sess.Toolbar.AddTextbox()
		if !ok {
			return nil, fmt.Errorf("a textbox was just added, retry in a moment")
		}
		if text := getString(args, "text"); text != "" {
			sess.Editor.SetText(id, text)
		}
		placeAt(sess, id, args)
		sess.Editor.Flush(ctx)
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

func (s *Server) handleAddImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := sess.Toolbar.AddImage(ctx, getString(args, "src"))
		if err != nil {
			return nil, fmt.Errorf("add image: %w", err)
		}
		placeAt(sess, id, args)
		sess.Editor.Flush(ctx)
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

// placeAt moves a new object to the optional x/y arguments. Callers flush
// afterwards so the summary carries the stored id.
func placeAt(sess *session.Session, id string, args map[string]any) {
	_, hasX := args["x"].(float64)
	_, hasY := args["y"].(float64)
	if !hasX && !hasY {
		return
	}
	o := sess.Editor.Object(id)
	if o == nil {
		return
	}
	n := sess.Editor.Normalizer()
	cur := n.RectToPercent(o.Bounds())
	x := getFloat(args, "x", cur.X)
	y := getFloat(args, "y", cur.Y)
	sess.Editor.Move(id, toObserved(n, x, n.Ref.Width), toObserved(n, y, n.Ref.Height))
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		n := sess.Editor.Normalizer()
		x, y := getFloat(args, "x", 0), getFloat(args, "y", 0)
		if !sess.Editor.Move(id, toObserved(n, x, n.Ref.Width), toObserved(n, y, n.Ref.Height)) {
			return nil, fmt.Errorf("move element %s failed", id)
		}
		return textResult(fmt.Sprintf("Element %s moved to (%.2f%%, %.2f%%)", id, x, y)), nil
	})
}

func (s *Server) handleResizeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		n := sess.Editor.Normalizer()
		w, h := getFloat(args, "width", 0), getFloat(args, "height", 0)
		if !sess.Editor.Resize(id, toObserved(n, w, n.Ref.Width), toObserved(n, h, n.Ref.Height)) {
			return nil, fmt.Errorf("resize element %s: width and height must be positive", id)
		}
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

func (s *Server) handleRotateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		angle := getFloat(args, "angle", 0)
		if !sess.Editor.Rotate(id, angle) {
			return nil, fmt.Errorf("rotate element %s failed", id)
		}
		return textResult(fmt.Sprintf("Element %s rotated to %.1f°", id, angle)), nil
	})
}

func (s *Server) handleSetText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		if !sess.Editor.SetText(id, getString(args, "text")) {
			return nil, fmt.Errorf("element %s is not a textbox", id)
		}
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

func (s *Server) handleArrangeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		action := getString(args, "action")
		sess.Editor.Select(id)
		defer sess.Editor.Discard()
		if !sess.Toolbar.Arrange(action) {
			return textResult(fmt.Sprintf("Element %s already in place for %s", id, action)), nil
		}
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

func (s *Server) handleAlignElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		mode := getString(args, "mode")
		sess.Editor.Select(id)
		defer sess.Editor.Discard()
		if !sess.Toolbar.AlignElement(mode) {
			return nil, fmt.Errorf("align element %s: unknown mode %q", id, mode)
		}
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

func (s *Server) handleSetAnimation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		cmd := domain.AnimationCommand{ObjectID: id, Animation: getString(args, "animation")}
		cmd.Exit, _ = args["exit"].(bool)
		if v, ok := args["duration"].(float64); ok {
			cmd.Duration = domain.FloatPtr(v)
		}
		if v, ok := args["delay"].(float64); ok {
			cmd.Delay = domain.FloatPtr(v)
		}
		if err := sess.Editor.SetAnimation(cmd); err != nil {
			return nil, fmt.Errorf("set animation: %w", err)
		}
		return jsonResult(summarize(sess, sess.Editor.Object(id)))
	})
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		if err := sess.Editor.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("delete element: %w", err)
		}
		return textResult(fmt.Sprintf("Element %s deleted", id)), nil
	})
}
