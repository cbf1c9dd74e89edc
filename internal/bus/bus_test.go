package bus_test

import (
	"context"
	"testing"

	"slides/internal/bus"
)

// ─────────────────────────────────────────────────────────────
// Bus tests
// ─────────────────────────────────────────────────────────────

func TestBus_DeliversInOrder(t *testing.T) {
	b := bus.New()
	ctx := context.Background()

	var got []string
	b.Subscribe("a", func(_ context.Context, data any) { got = append(got, "first:"+data.(string)) })
	b.Subscribe("a", func(_ context.Context, data any) { got = append(got, "second:"+data.(string)) })
	b.Subscribe("b", func(_ context.Context, data any) { got = append(got, "other") })

	b.Emit(ctx, "a", "x")

	if len(got) != 2 || got[0] != "first:x" || got[1] != "second:x" {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := bus.New()
	calls := 0
	off := b.Subscribe("e", func(context.Context, any) { calls++ })
	b.Emit(context.Background(), "e", nil)
	off()
	b.Emit(context.Background(), "e", nil)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	b := bus.New()
	var names []string
	b.SubscribeAll(func(_ context.Context, event string, _ any) { names = append(names, event) })
	b.Emit(context.Background(), "x", nil)
	b.Emit(context.Background(), "y", nil)
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Errorf("unexpected events %v", names)
	}
}

func TestBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := bus.New()
	reached := false
	b.Subscribe("e", func(context.Context, any) { panic("boom") })
	b.Subscribe("e", func(context.Context, any) { reached = true })
	b.Emit(context.Background(), "e", nil)
	if !reached {
		t.Error("second handler not reached")
	}
}

func TestBus_HandlerMayEmit(t *testing.T) {
	b := bus.New()
	ctx := context.Background()
	done := false
	b.Subscribe("ping", func(ctx context.Context, _ any) { b.Emit(ctx, "pong", nil) })
	b.Subscribe("pong", func(context.Context, any) { done = true })
	b.Emit(ctx, "ping", nil)
	if !done {
		t.Error("nested emit not delivered")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &bus.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}

func TestMockEmitter_Last(t *testing.T) {
	m := &bus.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "a", "first")
	m.Emit(ctx, "a", "second")

	last, ok := m.Last("a")
	if !ok || last.Data != "second" {
		t.Errorf("expected last 'second', got %v", last.Data)
	}
	if _, ok := m.Last("missing"); ok {
		t.Error("expected no event")
	}
}

// ─────────────────────────────────────────────────────────────
// Decode tests
// ─────────────────────────────────────────────────────────────

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want payload
	}{
		{"typed", payload{Name: "a", Value: 1}, payload{Name: "a", Value: 1}},
		{"pointer", &payload{Name: "b"}, payload{Name: "b"}},
		{"generic map", map[string]any{"name": "c", "value": 2.5}, payload{Name: "c", Value: 2.5}},
		{"nil", nil, payload{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bus.Decode[payload](tt.in)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := bus.Decode[payload](map[string]any{"value": "not a number"}); err == nil {
		t.Error("expected decode error")
	}
}
