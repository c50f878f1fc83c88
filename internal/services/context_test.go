package services_test

import (
	"context"
	"testing"

	"mediaforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithOperation(ctx, "to_audio")
	ctx = services.WithMessageID(ctx, "998877")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "to_audio" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if mid, ok := services.MessageIDFromContext(ctx); !ok || mid != "998877" {
		t.Fatalf("unexpected message id: %v %v", mid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if services.WithOperation(ctx, "") != ctx {
		t.Fatal("expected blank operation to return the same context")
	}
	if _, ok := services.MessageIDFromContext(ctx); ok {
		t.Fatal("expected no message id")
	}
}
