package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"math"
	"strings"
	"sync"

	"slides/internal/domain"
	"slides/internal/geometry"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"
)

const (
	maxParallelFetches = 8
	lineHeight         = 1.16
)

var ErrEmptyContainer = errors.New("container has no area")

// ImageSource fetches and decodes image sources.
type ImageSource interface {
	Image(ctx context.Context, src string) (image.Image, error)
}

// Raster draws a Tree into a bitmap the size of its container.
type Raster struct {
	Images ImageSource
	Fonts  *FontSet
}

func NewRaster(images ImageSource) (*Raster, error) {
	fonts, err := NewFontSet()
	if err != nil {
		return nil, err
	}
	return &Raster{Images: images, Fonts: fonts}, nil
}

// WritePNG renders tree and encodes it as PNG.
func (r *Raster) WritePNG(ctx context.Context, w io.Writer, tree *Tree) error {
	img, err := r.Render(ctx, tree)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Render draws tree. Images that fail to load are left out; the rest of the
// slide still renders.
func (r *Raster) Render(ctx context.Context, tree *Tree) (image.Image, error) {
	w, h := int(math.Ceil(tree.Container.Width)), int(math.Ceil(tree.Container.Height))
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyContainer
	}
	images := r.fetch(ctx, tree)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	f := tree.Frame
	dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
	dc.Clip()
	r.drawBackground(dc, tree, images)

	dc.Translate(f.X, f.Y)
	for _, n := range tree.Nodes {
		switch n.Kind {
		case NodeImage:
			if img, ok := images[n.Src]; ok {
				drawImageNode(dc, n, img)
			}
		default:
			r.drawTextNode(dc, n)
			// The text box clip outlives Pop; go back to the frame.
			dc.ResetClip()
			dc.DrawRectangle(0, 0, f.Width, f.Height)
			dc.Clip()
		}
	}
	return dc.Image(), nil
}

// fetch loads every image the tree references in parallel.
func (r *Raster) fetch(ctx context.Context, tree *Tree) map[string]image.Image {
	out := make(map[string]image.Image)
	if r.Images == nil {
		return out
	}
	srcs := make(map[string]bool)
	if tree.Background.Image != "" {
		srcs[tree.Background.Image] = true
	}
	for _, n := range tree.Nodes {
		if n.Kind == NodeImage {
			srcs[n.Src] = true
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for src := range srcs {
		g.Go(func() error {
			img, err := r.Images.Image(gctx, src)
			if err != nil {
				log.Printf("[Render] skip image %s: %v", src, err)
				return nil
			}
			mu.Lock()
			out[src] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Raster) drawBackground(dc *gg.Context, tree *Tree, images map[string]image.Image) {
	f := tree.Frame
	if setColor(dc, tree.Background.Color) {
		dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
		dc.Fill()
	}
	img, ok := images[tree.Background.Image]
	if !ok {
		return
	}
	b := img.Bounds()
	s := geometry.CoverScale(geometry.Size{Width: f.Width, Height: f.Height}, geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())})
	sw, sh := float64(b.Dx())*s, float64(b.Dy())*s
	scaled := scaleImage(img, sw, sh)
	if scaled == nil {
		return
	}
	dc.DrawImage(scaled, int(math.Round(f.X+(f.Width-sw)/2)), int(math.Round(f.Y+(f.Height-sh)/2)))
}

func drawImageNode(dc *gg.Context, n Node, img image.Image) {
	b := img.Bounds()
	box := geometry.ContainRect(n.Box, geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())})
	scaled := scaleImage(img, box.Width, box.Height)
	if scaled == nil {
		return
	}
	dc.Push()
	defer dc.Pop()
	rotate(dc, n)
	dc.DrawImage(scaled, int(math.Round(box.X)), int(math.Round(box.Y)))
}

func scaleImage(src image.Image, w, h float64) image.Image {
	iw, ih := int(math.Round(w)), int(math.Round(h))
	if iw <= 0 || ih <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, iw, ih))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// rotate turns the context about the node's center, like a CSS rotate.
func rotate(dc *gg.Context, n Node) {
	if n.Rotation == 0 {
		return
	}
	b := n.Box
	dc.RotateAbout(gg.Radians(n.Rotation), b.X+b.Width/2, b.Y+b.Height/2)
}

// setColor applies a hex color and reports whether it was usable.
func setColor(dc *gg.Context, c string) bool {
	if !domain.ValidColor(c) {
		return false
	}
	dc.SetHexColor(c)
	return true
}

// ── Text ───────────────────────────────────────────────────

type piece struct {
	text  string
	run   Run
	face  font.Face
	width float64
}

type line struct {
	pieces []piece
	width  float64
	height float64
	ascent float64
}

func (r *Raster) drawTextNode(dc *gg.Context, n Node) {
	b := n.Box
	dc.Push()
	defer dc.Pop()
	rotate(dc, n)
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	dc.Clip()

	y := b.Y
	for _, ln := range r.wrap(n) {
		x := b.X
		switch n.Align {
		case "center":
			x += (b.Width - ln.width) / 2
		case "right":
			x += b.Width - ln.width
		}
		baseline := y + ln.ascent
		for _, p := range ln.pieces {
			dc.SetFontFace(p.face)
			if !setColor(dc, p.run.Color) {
				dc.SetColor(color.Black)
			}
			dc.DrawString(p.text, x, baseline)
			if p.run.Underline {
				uy := baseline + p.run.FontSize*0.1
				dc.SetLineWidth(max(1, p.run.FontSize/15))
				dc.DrawLine(x, uy, x+p.width, uy)
				dc.Stroke()
			}
			x += p.width
		}
		y += ln.height
	}
}

// wrap breaks the runs of n into lines no wider than its box. Words wider than
// the box get a line of their own and are clipped.
func (r *Raster) wrap(n Node) []line {
	var lines []line
	cur := line{}
	newline := func(size float64) {
		if cur.height == 0 {
			cur.height = size * lineHeight
			cur.ascent = size
		}
		lines = append(lines, cur)
		cur = line{}
	}

	for _, run := range n.Runs {
		if run.FontSize <= 0 {
			continue
		}
		face := r.Fonts.Face(run.FontFamily, run.Bold, run.Italic, run.FontSize)
		ascent := float64(face.Metrics().Ascent.Round())
		for i, para := range strings.Split(run.Text, "\n") {
			if i > 0 {
				newline(run.FontSize)
			}
			for _, word := range strings.SplitAfter(para, " ") {
				if word == "" {
					continue
				}
				w := float64(font.MeasureString(face, word)) / 64
				if len(cur.pieces) > 0 && cur.width+w > n.Box.Width && strings.TrimSpace(word) != "" {
					newline(run.FontSize)
				}
				cur.pieces = append(cur.pieces, piece{text: word, run: run, face: face, width: w})
				cur.width += w
				cur.height = max(cur.height, run.FontSize*lineHeight)
				cur.ascent = max(cur.ascent, ascent)
			}
		}
	}
	if len(cur.pieces) > 0 {
		lines = append(lines, cur)
	}
	return lines
}
