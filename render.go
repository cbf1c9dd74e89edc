package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"slides/internal/assets"
	"slides/internal/domain"
	"slides/internal/geometry"
	"slides/internal/render"
	"slides/internal/watch"

	"github.com/spf13/cobra"
)

var (
	renderOut    string
	renderSlide  string
	renderWidth  float64
	renderHeight float64
	renderWatch  bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file.json]",
	Short: "Render a slide to HTML or PNG",
	Long: `Render a slide the way it is presented. The slide comes from a JSON file
or, with --slide, from the store. The output format follows the --out
extension: .html or .png.

Example:
  slides render deck/intro.json --out intro.png --width 1920 --height 1080
  slides render deck/intro.json --out intro.html --watch
  slides render --slide intro --out intro.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (.html or .png)")
	renderCmd.Flags().StringVar(&renderSlide, "slide", "", "Render a stored slide instead of a file")
	renderCmd.Flags().Float64Var(&renderWidth, "width", geometry.ReferenceWidth, "Container width in pixels")
	renderCmd.Flags().Float64Var(&renderHeight, "height", geometry.ReferenceHeight, "Container height in pixels")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "Render again whenever the input file changes")
	renderCmd.MarkFlagRequired("out")
}

// renderJob renders one slide to one output file.
type renderJob struct {
	layout    render.Layout
	raster    *render.Raster
	container geometry.Size
	out       string
}

func (j renderJob) run(ctx context.Context, sl domain.Slide) error {
	tree := j.layout.Build(sl, j.container)
	var buf bytes.Buffer
	switch ext := strings.ToLower(filepath.Ext(j.out)); ext {
	case ".html", ".htm":
		if err := render.WriteHTML(&buf, tree); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	case ".png":
		if err := j.raster.WritePNG(ctx, &buf, tree); err != nil {
			return fmt.Errorf("render png: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q (use .html or .png)", ext)
	}
	if err := os.WriteFile(j.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", j.out, err)
	}
	log.Printf("[Render] wrote %s (%d elements)", j.out, len(sl.Elements))
	return nil
}

// readSlideFile decodes a slide exported as JSON.
func readSlideFile(path string) (domain.Slide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Slide{}, fmt.Errorf("read slide: %w", err)
	}
	var sl domain.Slide
	if err := json.Unmarshal(data, &sl); err != nil {
		return domain.Slide{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return sl, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (renderSlide != "") {
		return fmt.Errorf("give either a slide file or --slide")
	}
	if renderWatch && len(args) == 0 {
		return fmt.Errorf("--watch needs a slide file")
	}
	if renderWidth <= 0 || renderHeight <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var sl domain.Slide
	var images *assets.Loader
	if renderSlide != "" {
		d, err := openDeps(ctx)
		if err != nil {
			return err
		}
		defer d.Close()
		stored, err := d.store.GetSlide(ctx, renderSlide)
		if err != nil {
			return fmt.Errorf("load slide %s: %w", renderSlide, err)
		}
		sl, images = *stored, d.images
	} else {
		if sl, err = readSlideFile(args[0]); err != nil {
			return err
		}
		// Local image paths in a slide file are relative to the file.
		images = assets.NewLoader(filepath.Dir(args[0]))
	}

	raster, err := newRaster(cfg, images)
	if err != nil {
		return err
	}
	job := renderJob{
		layout:    render.Layout{Reference: cfg.Editor.Reference, FontReference: cfg.Editor.FontReference},
		raster:    raster,
		container: geometry.Size{Width: renderWidth, Height: renderHeight},
		out:       renderOut,
	}
	if err := job.run(ctx, sl); err != nil {
		return err
	}
	if !renderWatch {
		return nil
	}
	return watchAndRender(ctx, args[0], job)
}

// watchAndRender re-renders path on every change until ctx ends. A change that
// fails to parse or render is logged and the previous output stays.
func watchAndRender(ctx context.Context, path string, job renderJob) error {
	w, err := watch.New(watch.DefaultDelay, func(p string) {
		sl, err := readSlideFile(p)
		if err != nil {
			log.Printf("[Render] %v", err)
			return
		}
		if err := job.run(ctx, sl); err != nil {
			log.Printf("[Render] %v", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(path); err != nil {
		return err
	}
	log.Printf("[Render] watching %s, Ctrl+C to stop", path)
	<-ctx.Done()
	return nil
}
