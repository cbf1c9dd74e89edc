package editor

import (
	"context"
	"log"
	"slices"
	"time"

	"slides/internal/canvas"
	"slides/internal/domain"
	"slides/internal/geometry"
	"slides/internal/serializer"

	"golang.org/x/sync/errgroup"
)

// maxParallelLoads bounds concurrent image decodes during mount.
const maxParallelLoads = 8

type placed struct {
	obj *canvas.Object
	el  domain.SlideElement
}

// Mount resets the editor onto slide. Elements come from source when given, else
// from slide.Elements. A source that keeps failing is retried a fixed number of
// times, then the slide mounts empty. Elements that fail to decode are skipped.
func (e *Editor) Mount(ctx context.Context, slide domain.Slide, source ElementSource) error {
	elements := slide.Elements
	if source != nil {
		elements = e.fetchElements(ctx, slide.ID, source)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	objs := e.build(ctx, elements)

	bgScale := 0.0
	if slide.Background.Image != "" && e.images != nil {
		size, err := e.images.Size(ctx, slide.Background.Image)
		if err != nil {
			log.Printf("[Editor] background image %s: %v", slide.Background.Image, err)
		} else {
			bgScale = geometry.CoverScale(e.opts.Reference, size)
		}
	}

	e.do(func() {
		e.supersedeAll()
		e.slideID = slide.ID
		e.reset(slide.Background)
		e.bgScale = bgScale
		for _, p := range objs {
			e.canvas.Add(p.obj)
			e.records[p.obj.ID] = &record{serverID: p.el.SlideElementID}
			if p.el.SlideElementID != "" {
				e.elements[p.obj.ID] = p.el
			}
		}
		e.resetHistory()
		e.queueSelection()
	})
	log.Printf("[Editor] mounted slide %s with %d/%d elements", slide.ID, len(objs), len(elements))
	return nil
}

// supersedeAll cancels every pending debounced update of the previous session.
func (e *Editor) supersedeAll() {
	for _, rec := range e.records {
		rec.removed = true
		if rec.debounce != nil {
			rec.debounce(func() {})
		}
	}
}

func (e *Editor) fetchElements(ctx context.Context, slideID string, source ElementSource) []domain.SlideElement {
	for attempt := 1; attempt <= e.opts.LoadAttempts; attempt++ {
		els, err := source(ctx)
		if err == nil {
			return els
		}
		log.Printf("[Editor] load elements for slide %s (attempt %d/%d): %v", slideID, attempt, e.opts.LoadAttempts, err)
		if attempt == e.opts.LoadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.opts.LoadDelay):
		}
	}
	log.Printf("[Editor] elements for slide %s never arrived; mounting empty", slideID)
	return nil
}

// build decodes every element in parallel and returns the successes in ascending
// layer order; ties keep their input order.
func (e *Editor) build(ctx context.Context, elements []domain.SlideElement) []placed {
	sorted := slices.Clone(elements)
	slices.SortStableFunc(sorted, func(a, b domain.SlideElement) int { return a.LayerOrder - b.LayerOrder })

	results := make([]*placed, len(sorted))
	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for i, el := range sorted {
		g.Go(func() error {
			o, err := serializer.FromPayload(el, e.norm)
			if err != nil {
				log.Printf("[Editor] skip element %s: %v", el.SlideElementID, err)
				return nil
			}
			if o.IsImage() && e.images != nil {
				size, err := e.images.Size(ctx, *el.SourceURL)
				if err != nil {
					log.Printf("[Editor] skip image %s: %v", el.SlideElementID, err)
					return nil
				}
				serializer.AttachNaturalSize(o, size.Width, size.Height)
			}
			results[i] = &placed{obj: o, el: el}
			return nil
		})
	}
	_ = g.Wait()

	var out []placed
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
