// Package render replays persisted slides without an editing surface. Layout is a
// pure function of the slide and the container; the HTML and PNG writers only
// consume its tree.
package render

import (
	"slices"

	"slides/internal/domain"
	"slides/internal/geometry"
)

// TextFallback replaces a text element whose content cannot be parsed.
const TextFallback = "error rendering text"

type NodeKind string

const (
	NodeText  NodeKind = "text"
	NodeImage NodeKind = "image"
	NodeError NodeKind = "error"
)

// Run is one independently styled inline piece of a text node. FontSize is in
// output pixels.
type Run struct {
	Text       string
	FontFamily string
	FontSize   float64
	Bold       bool
	Italic     bool
	Underline  bool
	Color      string
}

// Node is one placed element. Box is in output pixels relative to the frame.
type Node struct {
	Kind      NodeKind
	ElementID string
	Box       geometry.Rect
	Rotation  float64

	Align string
	Runs  []Run

	Src string
}

// Tree is the visual tree of one slide. Frame is the reference canvas scaled by
// Scale and centered in Container.
type Tree struct {
	Container  geometry.Size
	Scale      float64
	Frame      geometry.Rect
	Background domain.Background
	Nodes      []Node
}

// Layout maps percent geometry onto a container. It never fails: malformed text
// becomes a NodeError, and elements that cannot be placed are left out.
type Layout struct {
	Reference     geometry.Size
	FontReference float64
}

// DefaultLayout uses the reference canvas the editor persists against.
func DefaultLayout() Layout {
	return Layout{
		Reference:     geometry.Size{Width: geometry.ReferenceWidth, Height: geometry.ReferenceHeight},
		FontReference: geometry.FontReferenceWidth,
	}
}

// Build lays slide out inside container. Elements are stacked in ascending
// layerOrder; ties keep their order in the slide.
func (l Layout) Build(slide domain.Slide, container geometry.Size) *Tree {
	scale := geometry.FitScale(container, l.Reference)
	fw, fh := l.Reference.Width*scale, l.Reference.Height*scale
	tree := &Tree{
		Container:  container,
		Scale:      scale,
		Frame:      geometry.Rect{X: (container.Width - fw) / 2, Y: (container.Height - fh) / 2, Width: fw, Height: fh},
		Background: slide.Background,
	}

	elements := slices.Clone(slide.Elements)
	slices.SortStableFunc(elements, func(a, b domain.SlideElement) int { return a.LayerOrder - b.LayerOrder })
	for _, el := range elements {
		if n, ok := l.node(el, scale); ok {
			tree.Nodes = append(tree.Nodes, n)
		}
	}
	return tree
}

func (l Layout) node(el domain.SlideElement, scale float64) (Node, bool) {
	box := geometry.Rect{
		X:      geometry.ToPixel(el.PositionX, l.Reference.Width) * scale,
		Y:      geometry.ToPixel(el.PositionY, l.Reference.Height) * scale,
		Width:  geometry.ToPixel(el.Width, l.Reference.Width) * scale,
		Height: geometry.ToPixel(el.Height, l.Reference.Height) * scale,
	}
	n := Node{ElementID: el.SlideElementID, Box: box, Rotation: el.Rotation}

	switch el.SlideElementType {
	case domain.ElementTypeImage:
		if el.SourceURL == nil || *el.SourceURL == "" {
			return n, false
		}
		n.Kind, n.Src = NodeImage, *el.SourceURL
		return n, true
	case domain.ElementTypeText:
		if el.Content == nil {
			return l.fallback(n, scale), true
		}
		tc, err := domain.ParseTextContent(*el.Content)
		if err != nil {
			return l.fallback(n, scale), true
		}
		n.Kind, n.Align = NodeText, tc.TextAlign
		tc.Text = domain.TransformText(tc.Text, tc.TextTransform)
		for _, r := range tc.Runs() {
			n.Runs = append(n.Runs, Run{
				Text:       r.Text,
				FontFamily: r.Style.FontFamily,
				FontSize:   geometry.FontFromPercent(r.Style.FontSize, l.FontReference) * scale,
				Bold:       r.Style.Bold(),
				Italic:     r.Style.Italic(),
				Underline:  r.Style.Underline,
				Color:      r.Style.Fill,
			})
		}
		return n, true
	}
	return n, false
}

// fallbackFontSize is the size of the fallback label on the reference canvas.
const fallbackFontSize = 14

func (l Layout) fallback(n Node, scale float64) Node {
	n.Kind = NodeError
	n.Runs = []Run{{Text: TextFallback, FontFamily: "Arial", FontSize: fallbackFontSize * scale, Color: "#cc0000"}}
	return n
}
