package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"slides/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerFormatTools() {
	// ── format_text ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("format_text",
		mcp.WithDescription("Format a textbox. Without start/end the whole box is formatted; with them only that character range."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithNumber("start", mcp.Description("First character of the range (optional)")),
		mcp.WithNumber("end", mcp.Description("End of the range, exclusive (optional)")),
		mcp.WithString("toggle", mcp.Description("Comma-separated styles to toggle: bold, italic, underline")),
		mcp.WithNumber("fontSize", mcp.Description("Font size in pixels, 8 to 72")),
		mcp.WithString("fontFamily", mcp.Description("Font family from the catalogue")),
		mcp.WithString("color", mcp.Description("Hex text color")),
		mcp.WithString("align", mcp.Description("left, center, right or justify (whole box only)")),
		mcp.WithString("transform", mcp.Description("none, uppercase, lowercase or capitalize (whole box only)")),
	), s.handleFormatText)

	// ── toggle_style ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_style",
		mcp.WithDescription("Toggle bold, italic or underline on a textbox, or on a character range of it"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
		mcp.WithString("style", mcp.Description("bold, italic or underline"), mcp.Required()),
		mcp.WithNumber("start", mcp.Description("First character of the range (optional)")),
		mcp.WithNumber("end", mcp.Description("End of the range, exclusive (optional)")),
	), s.handleToggleStyle)

	// ── get_format ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_format",
		mcp.WithDescription("Report the formatting of a textbox as the toolbar shows it"),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("elementId", mcp.Description("Element ID or slideElementId"), mcp.Required()),
	), s.handleGetFormat)
}

func (s *Server) handleFormatText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		if !sess.Editor.Object(id).IsText() {
			return nil, fmt.Errorf("element %s is not a textbox", id)
		}

		sess.Editor.Select(id)
		defer sess.Editor.Discard()
		start, hasStart := args["start"].(float64)
		end, hasEnd := args["end"].(float64)
		if hasStart && hasEnd {
			if !sess.Editor.EditText(id, int(start), int(end)) {
				return nil, fmt.Errorf("invalid range %d-%d", int(start), int(end))
			}
			defer sess.Editor.ExitEditing()
		}

		tb := sess.Toolbar
		var applied, rejected []string
		apply := func(name string, ok bool) {
			if ok {
				applied = append(applied, name)
			} else {
				rejected = append(rejected, name)
			}
		}
		for _, style := range strings.Split(getString(args, "toggle"), ",") {
			if style = strings.TrimSpace(style); style != "" {
				apply(style, tb.ToggleStyle(style))
			}
		}
		if v, ok := args["fontSize"].(float64); ok {
			apply("fontSize", tb.SetFontSize(v))
		}
		if v := getString(args, "fontFamily"); v != "" {
			apply("fontFamily", tb.SetFontFamily(v))
		}
		if v := getString(args, "color"); v != "" {
			apply("color", tb.SetColor(v))
		}
		if v := getString(args, "align"); v != "" {
			apply("align", tb.SetAlign(v))
		}
		if v := getString(args, "transform"); v != "" {
			apply("transform", tb.SetTextTransform(v))
		}
		if len(applied) == 0 && len(rejected) == 0 {
			return nil, fmt.Errorf("nothing to format")
		}
		if len(rejected) > 0 {
			return nil, fmt.Errorf("rejected: %s (applied: %s)", strings.Join(rejected, ", "), strings.Join(applied, ", "))
		}
		return jsonResult(tb.FormatState())
	})
}

// handleToggleStyle is format_text limited to one toggle.
func (s *Server) handleToggleStyle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	style := getString(args, "style")
	if style == "" {
		return nil, fmt.Errorf("style is required")
	}
	fwd := map[string]any{"toggle": style}
	for _, k := range []string{"slideId", "elementId", "start", "end"} {
		if v, ok := args[k]; ok {
			fwd[k] = v
		}
	}
	req.Params.Arguments = fwd
	return s.handleFormatText(ctx, req)
}

func (s *Server) handleGetFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		id, err := resolveElement(sess, args)
		if err != nil {
			return nil, err
		}
		sess.Editor.Select(id)
		defer sess.Editor.Discard()
		return jsonResult(sess.Toolbar.FormatState())
	})
}
