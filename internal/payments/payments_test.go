package payments

import (
	"context"
	"testing"
	"time"
)

func TestMockGatewayHoldCapture(t *testing.T) {
	g := NewMockGateway()
	g.Delay = time.Millisecond
	ctx := context.Background()

	id, err := g.Hold(ctx, 1250, "usd", "rider1")
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if id == "" {
		t.Fatal("expected a hold id")
	}
	if err := g.Capture(ctx, id); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := g.Capture(ctx, id); err == nil {
		t.Fatal("double capture must fail")
	}
}

func TestMockGatewayCancel(t *testing.T) {
	g := NewMockGateway()
	g.Delay = 0
	ctx := context.Background()
	id, err := g.Hold(ctx, 500, "usd", "rider1")
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := g.Cancel(ctx, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := g.Capture(ctx, id); err == nil {
		t.Fatal("capture after cancel must fail")
	}
}

func TestMockGatewayRespectsContext(t *testing.T) {
	g := NewMockGateway()
	g.Delay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Hold(ctx, 100, "usd", "rider1"); err == nil {
		t.Fatal("expected context error")
	}
}
