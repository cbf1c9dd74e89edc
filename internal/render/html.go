package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"slides/internal/domain"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteHTML writes tree as a standalone document. Every node is absolutely placed
// inside the scaled frame; images use contain fit and the background uses cover.
func WriteHTML(w io.Writer, tree *Tree) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: "slide"})
	head.AppendChild(title)
	body := element(atom.Body, attr("style", "margin:0"))
	body.AppendChild(Fragment(tree))
	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Fragment returns the container element of tree, for embedding in another page.
func Fragment(tree *Tree) *html.Node {
	container := element(atom.Div, attr("class", "slide-container"), attr("style", css(
		"position", "relative",
		"overflow", "hidden",
		"width", px(tree.Container.Width),
		"height", px(tree.Container.Height),
	)))

	f := tree.Frame
	frameStyle := []string{
		"position", "absolute",
		"overflow", "hidden",
		"left", px(f.X),
		"top", px(f.Y),
		"width", px(f.Width),
		"height", px(f.Height),
	}
	if bg := tree.Background; domain.ValidColor(bg.Color) {
		frameStyle = append(frameStyle, "background-color", bg.Color)
	}
	if bg := tree.Background; bg.Image != "" {
		frameStyle = append(frameStyle,
			"background-image", cssURL(bg.Image),
			"background-size", "cover",
			"background-position", "center",
		)
	}
	frame := element(atom.Div, attr("class", "slide"), attr("style", css(frameStyle...)))
	container.AppendChild(frame)

	for _, n := range tree.Nodes {
		frame.AppendChild(nodeHTML(n))
	}
	return container
}

func nodeHTML(n Node) *html.Node {
	style := []string{
		"position", "absolute",
		"left", px(n.Box.X),
		"top", px(n.Box.Y),
		"width", px(n.Box.Width),
		"height", px(n.Box.Height),
	}
	if n.Rotation != 0 {
		style = append(style, "transform", "rotate("+num(n.Rotation)+"deg)")
	}

	switch n.Kind {
	case NodeImage:
		wrap := element(atom.Div, attr("data-element-id", n.ElementID), attr("style", css(style...)))
		wrap.AppendChild(element(atom.Img,
			attr("src", n.Src),
			attr("alt", ""),
			attr("style", "width:100%;height:100%;object-fit:contain"),
		))
		return wrap
	default:
		style = append(style, "overflow", "hidden", "white-space", "pre-wrap")
		if domain.ValidAlign(n.Align) {
			style = append(style, "text-align", n.Align)
		}
		class := "text"
		if n.Kind == NodeError {
			class = "text error"
		}
		wrap := element(atom.Div, attr("class", class), attr("data-element-id", n.ElementID), attr("style", css(style...)))
		for _, r := range n.Runs {
			span := element(atom.Span, attr("style", runCSS(r)))
			span.AppendChild(&html.Node{Type: html.TextNode, Data: r.Text})
			wrap.AppendChild(span)
		}
		return wrap
	}
}

func runCSS(r Run) string {
	style := []string{"font-size", px(r.FontSize)}
	if r.FontFamily != "" {
		style = append(style, "font-family", strconv.Quote(r.FontFamily))
	}
	if r.Bold {
		style = append(style, "font-weight", "bold")
	}
	if r.Italic {
		style = append(style, "font-style", "italic")
	}
	if r.Underline {
		style = append(style, "text-decoration", "underline")
	}
	if domain.ValidColor(r.Color) {
		style = append(style, "color", r.Color)
	}
	return css(style...)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// css joins property/value pairs into a style attribute.
func css(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(kv[i])
		b.WriteByte(':')
		b.WriteString(kv[i+1])
	}
	return b.String()
}

var urlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "")

func cssURL(u string) string {
	return `url("` + urlEscaper.Replace(u) + `")`
}

func px(v float64) string { return num(v) + "px" }

// num prints v with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
