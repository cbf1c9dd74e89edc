package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("title_slide",
		mcp.WithPromptDescription("Guide through building a title slide with a heading, subtitle and entry animations"),
		mcp.WithArgument("title",
			mcp.ArgumentDescription("Main heading of the slide"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("subtitle",
			mcp.ArgumentDescription("Line shown under the heading"),
		),
	), s.handleTitleSlidePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_slide",
		mcp.WithPromptDescription("Render the active slide and suggest layout fixes"),
	), s.handleReviewSlidePrompt)
}

func (s *Server) handleTitleSlidePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	title := req.Params.Arguments["title"]
	subtitle := req.Params.Arguments["subtitle"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a title slide for: %s", title),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a title slide on the active slide. Follow these steps:

1. Use set_background to give the slide a dark color such as #0f172a
2. Use add_textbox with text "%s", then format_text with fontSize 48, toggle bold and color #ffffff
3. Use align_element with mode center-h on the heading
4. If a subtitle is given ("%s"), add a second textbox below the heading with fontSize 24 and color #cbd5e1
5. Use set_animation to give the heading "Fade" and the subtitle "SlideInLeft"
6. Finish with render_slide to check the result`, title, subtitle),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewSlidePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review the active slide",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Review the active slide:

1. Call render_slide to see it and list_elements to get element positions
2. Look for text that overflows the slide, overlapping elements and uneven margins
3. Fix what you find with move_element, resize_element and align_element
4. Render again and describe what changed`,
				},
			},
		},
	}, nil
}
