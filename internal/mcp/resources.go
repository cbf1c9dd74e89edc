package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"slides/internal/animation"
	"slides/internal/toolbar"

	"github.com/mark3labs/mcp-go/mcp"
)

const slideURIPrefix = "slides://slide/"

func (s *Server) registerResources() {
	// ── slides://animations ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"slides://animations",
		"Animation Catalogue",
		mcp.WithMIMEType("application/json"),
	), s.handleAnimationsResource)

	// ── slides://fonts ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"slides://fonts",
		"Font Families",
		mcp.WithMIMEType("application/json"),
	), s.handleFontsResource)

	// ── slides://slide/{slideId} ───────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			slideURIPrefix+"{slideId}",
			"Stored Slide",
		),
		s.handleSlideResource,
	)
}

func (s *Server) handleAnimationsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, animation.Names())
}

func (s *Server) handleFontsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, toolbar.FontFamilies)
}

// handleSlideResource reads the stored slide, not the live session, so it shows
// what has been persisted.
func (s *Server) handleSlideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	slideID := strings.TrimPrefix(uri, slideURIPrefix)
	if slideID == uri || slideID == "" || strings.Contains(slideID, "/") {
		return nil, fmt.Errorf("could not extract slideId from URI: %s", uri)
	}
	sl, err := s.deps.Store.GetSlide(ctx, slideID)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, sl)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
