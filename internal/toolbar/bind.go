package toolbar

import (
	"context"
	"log"

	"slides/internal/bus"
	"slides/internal/canvas"
	"slides/internal/domain"
)

// Bind subscribes the toolbar to its commands on b and rebroadcasts the format
// state whenever the selection or the caret moves. The returned function removes
// every subscription.
func (t *Toolbar) Bind(b *bus.Bus) func() {
	on := func(event string, fn func(ctx context.Context, cmd domain.ToolbarCommand)) func() {
		return b.Subscribe(event, func(ctx context.Context, data any) {
			cmd, err := bus.Decode[domain.ToolbarCommand](data)
			if err != nil {
				log.Printf("[Toolbar] bad %s payload: %v", event, err)
				return
			}
			fn(ctx, cmd)
		})
	}
	shape := func(kind canvas.Kind) func(context.Context, domain.ToolbarCommand) {
		return func(context.Context, domain.ToolbarCommand) { t.AddShape(kind) }
	}

	offs := []func(){
		on(domain.CmdAddTextbox, func(context.Context, domain.ToolbarCommand) { t.AddTextbox() }),
		on(domain.CmdAddImage, func(ctx context.Context, cmd domain.ToolbarCommand) {
			if _, err := t.AddImage(ctx, cmd.Src); err != nil {
				log.Printf("[Toolbar] add image %s: %v", cmd.Src, err)
			}
		}),
		on(domain.CmdAddRect, shape(canvas.KindRect)),
		on(domain.CmdAddCircle, shape(canvas.KindCircle)),
		on(domain.CmdAddTriangle, shape(canvas.KindTriangle)),
		on(domain.CmdAddArrow, shape(canvas.KindArrow)),
		on(domain.CmdToggleStyle, func(_ context.Context, cmd domain.ToolbarCommand) { t.ToggleStyle(cmd.Style) }),
		on(domain.CmdFontSize, func(_ context.Context, cmd domain.ToolbarCommand) { t.SetFontSize(cmd.Size) }),
		on(domain.CmdFontFamily, func(_ context.Context, cmd domain.ToolbarCommand) { t.SetFontFamily(cmd.Family) }),
		on(domain.CmdChangeAlign, func(_ context.Context, cmd domain.ToolbarCommand) { t.SetAlign(cmd.Align) }),
		on(domain.CmdTextTransform, func(_ context.Context, cmd domain.ToolbarCommand) { t.SetTextTransform(cmd.Transform) }),
		on(domain.CmdChangeColor, func(_ context.Context, cmd domain.ToolbarCommand) { t.SetColor(cmd.Color) }),
		on(domain.CmdArrange, func(_ context.Context, cmd domain.ToolbarCommand) { t.Arrange(cmd.Action) }),
		on(domain.CmdAlignElement, func(_ context.Context, cmd domain.ToolbarCommand) { t.AlignElement(cmd.AlignType) }),
		on(domain.CmdGroup, func(context.Context, domain.ToolbarCommand) { t.Group() }),
		on(domain.CmdUngroup, func(context.Context, domain.ToolbarCommand) { t.Ungroup() }),
		on(domain.CmdClear, func(ctx context.Context, _ domain.ToolbarCommand) {
			if err := t.Clear(ctx); err != nil {
				log.Printf("[Toolbar] clear: %v", err)
			}
		}),
		on(domain.CmdDelete, func(ctx context.Context, _ domain.ToolbarCommand) {
			if err := t.Delete(ctx); err != nil {
				log.Printf("[Toolbar] delete: %v", err)
			}
		}),
		b.Subscribe(domain.EventSelectionChanged, func(context.Context, any) { t.EmitFormatState() }),
		b.Subscribe(domain.EventTextSelectionChange, func(context.Context, any) { t.EmitFormatState() }),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
