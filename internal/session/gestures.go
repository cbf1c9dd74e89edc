package session

import (
	"context"
	"log"

	"slides/internal/bus"
)

// Gesture commands carry pointer and keyboard edits from a remote surface. The
// editor and toolbar commands travel on the same bus under their own names.
const (
	CmdSelect      = "session:select"
	CmdSelectAll   = "session:select-all"
	CmdDiscard     = "session:discard"
	CmdMove        = "session:move"
	CmdScale       = "session:scale"
	CmdResize      = "session:resize"
	CmdRotate      = "session:rotate"
	CmdSetText     = "session:set-text"
	CmdEditText    = "session:edit-text"
	CmdExitEditing = "session:exit-editing"
	CmdRemove      = "session:remove"
)

// Gesture is the payload of the gesture commands. Coordinates are observed
// pixels on the surface.
type Gesture struct {
	IDs    []string `json:"ids,omitempty"`
	ID     string   `json:"id,omitempty"`
	X      float64  `json:"x,omitempty"`
	Y      float64  `json:"y,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Height float64  `json:"height,omitempty"`
	ScaleX float64  `json:"scaleX,omitempty"`
	ScaleY float64  `json:"scaleY,omitempty"`
	Angle  float64  `json:"angle,omitempty"`
	Text   string   `json:"text,omitempty"`
	Start  int      `json:"start,omitempty"`
	End    int      `json:"end,omitempty"`
}

func (s *Session) bindGestures() func() {
	ed := s.Editor
	on := func(event string, fn func(ctx context.Context, g Gesture)) func() {
		return s.Bus.Subscribe(event, func(ctx context.Context, data any) {
			g, err := bus.Decode[Gesture](data)
			if err != nil {
				log.Printf("[Session] %s: %v", event, err)
				return
			}
			fn(ctx, g)
		})
	}
	offs := []func(){
		on(CmdSelect, func(_ context.Context, g Gesture) {
			ids := g.IDs
			if len(ids) == 0 && g.ID != "" {
				ids = []string{g.ID}
			}
			ed.Select(ids...)
		}),
		on(CmdSelectAll, func(context.Context, Gesture) { ed.SelectAll() }),
		on(CmdDiscard, func(context.Context, Gesture) { ed.Discard() }),
		on(CmdMove, func(_ context.Context, g Gesture) { ed.Move(g.ID, g.X, g.Y) }),
		on(CmdScale, func(_ context.Context, g Gesture) { ed.Scale(g.ID, g.ScaleX, g.ScaleY) }),
		on(CmdResize, func(_ context.Context, g Gesture) { ed.Resize(g.ID, g.Width, g.Height) }),
		on(CmdRotate, func(_ context.Context, g Gesture) { ed.Rotate(g.ID, g.Angle) }),
		on(CmdSetText, func(_ context.Context, g Gesture) { ed.SetText(g.ID, g.Text) }),
		on(CmdEditText, func(_ context.Context, g Gesture) { ed.EditText(g.ID, g.Start, g.End) }),
		on(CmdExitEditing, func(context.Context, Gesture) { ed.ExitEditing() }),
		on(CmdRemove, func(ctx context.Context, g Gesture) {
			if err := ed.Delete(ctx, g.ID); err != nil {
				log.Printf("[Session] remove %s: %v", g.ID, err)
			}
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
