package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"slides/internal/render"
	"slides/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxRenderSide = 4096

func (s *Server) registerRenderTools() {
	// ── render_slide ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_slide",
		mcp.WithDescription("Render the slide as it would be presented. html returns markup; png returns an image."),
		mcp.WithString("slideId", mcp.Description("Slide ID (optional, defaults to active slide)")),
		mcp.WithString("format", mcp.Description("html or png (default png)")),
		mcp.WithNumber("width", mcp.Description("Container width in pixels (default 812)")),
		mcp.WithNumber("height", mcp.Description("Container height in pixels (default 460)")),
	), s.handleRenderSlide)
}

func (s *Server) handleRenderSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, req, func(sess *session.Session, args map[string]any) (*mcp.CallToolResult, error) {
		container := s.deps.Layout.Reference
		container.Width = getFloat(args, "width", container.Width)
		container.Height = getFloat(args, "height", container.Height)
		if container.Width <= 0 || container.Height <= 0 || container.Width > maxRenderSide || container.Height > maxRenderSide {
			return nil, fmt.Errorf("container must be between 1 and %d pixels per side", maxRenderSide)
		}
		tree := s.deps.Layout.Build(sess.Slide(), container)

		var buf bytes.Buffer
		switch format := getString(args, "format"); format {
		case "html":
			if err := render.WriteHTML(&buf, tree); err != nil {
				return nil, fmt.Errorf("render html: %w", err)
			}
			return textResult(buf.String()), nil
		case "", "png":
			if s.deps.Raster == nil {
				return nil, fmt.Errorf("png rendering is not configured, use format=html")
			}
			if err := s.deps.Raster.WritePNG(ctx, &buf, tree); err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.ImageContent{
						Type:     "image",
						Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
						MIMEType: "image/png",
					},
				},
			}, nil
		default:
			return nil, fmt.Errorf("unknown format %q", format)
		}
	})
}
