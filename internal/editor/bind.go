package editor

import (
	"context"
	"log"

	"slides/internal/bus"
	"slides/internal/canvas"
	"slides/internal/domain"
)

// Bind subscribes the editor to its inbound commands on b and returns a function
// that removes the subscriptions. Commands without a target object act on the
// active object.
func (e *Editor) Bind(b *bus.Bus) func() {
	offs := []func(){
		b.Subscribe(domain.CmdSetBackgroundColor, func(_ context.Context, data any) {
			bg, ok := decode[domain.Background](domain.CmdSetBackgroundColor, data)
			if ok {
				e.SetBackgroundColor(bg.Color)
			}
		}),
		b.Subscribe(domain.CmdSetBackgroundImage, func(ctx context.Context, data any) {
			bg, ok := decode[domain.Background](domain.CmdSetBackgroundImage, data)
			if ok {
				_ = e.SetBackgroundImage(ctx, bg.Image)
			}
		}),
		b.Subscribe(domain.CmdUpdateDisplayOrder, func(_ context.Context, data any) {
			upd, ok := decode[domain.DisplayOrderUpdate](domain.CmdUpdateDisplayOrder, data)
			if ok && (upd.SlideID == "" || upd.SlideID == e.SlideID()) {
				e.UpdateDisplayOrder(upd.Elements)
			}
		}),
		b.Subscribe(domain.CmdPreviewAnimation, func(_ context.Context, data any) {
			cmd, ok := e.animationCommand(domain.CmdPreviewAnimation, data)
			if !ok {
				return
			}
			if err := e.PreviewAnimation(cmd.ObjectID, cmd.Animation); err != nil {
				log.Printf("[Editor] preview %s: %v", cmd.Animation, err)
			}
		}),
		b.Subscribe(domain.CmdSetAnimation, func(_ context.Context, data any) {
			cmd, ok := e.animationCommand(domain.CmdSetAnimation, data)
			if !ok {
				return
			}
			if err := e.SetAnimation(cmd); err != nil {
				log.Printf("[Editor] set animation %s: %v", cmd.Animation, err)
			}
		}),
		b.Subscribe(domain.CmdResetAnimation, func(_ context.Context, data any) {
			cmd, _ := decode[domain.AnimationCommand](domain.CmdResetAnimation, data)
			e.ResetAnimation(cmd.ObjectID)
		}),
		b.Subscribe(domain.CmdUndo, func(context.Context, any) { e.Undo() }),
		b.Subscribe(domain.CmdRedo, func(context.Context, any) { e.Redo() }),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (e *Editor) animationCommand(event string, data any) (domain.AnimationCommand, bool) {
	cmd, ok := decode[domain.AnimationCommand](event, data)
	if !ok {
		return cmd, false
	}
	if cmd.ObjectID == "" {
		e.Inspect(func(c *canvas.Canvas) {
			if o := c.ActiveObject(); o != nil {
				cmd.ObjectID = o.ID
			}
		})
	}
	return cmd, cmd.ObjectID != ""
}

func decode[T any](event string, data any) (T, bool) {
	v, err := bus.Decode[T](data)
	if err != nil {
		log.Printf("[Editor] bad %s payload: %v", event, err)
		return v, false
	}
	return v, true
}
