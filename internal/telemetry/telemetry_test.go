package telemetry

import (
	"context"
	"testing"

	"github.com/arclight-ai/agentcore/internal/config"
)

func TestNoopTracerIsUsable(t *testing.T) {
	p := Noop()
	tracer := p.Tracer()
	if tracer == nil {
		t.Fatal("expected a non-nil tracer from Noop()")
	}
	_, span := tracer.Start(context.Background(), "test.span")
	span.End()
}

func TestNoopShutdownIsNil(t *testing.T) {
	p := Noop()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on a Noop provider should never error, got %v", err)
	}
}

func TestNewDisabledReturnsNoop(t *testing.T) {
	p, err := New(context.Background(), config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.tp != nil {
		t.Error("expected a Noop provider (nil tp) when Enabled is false")
	}
	if p.Tracer() == nil {
		t.Error("expected a usable tracer even when disabled")
	}
}
