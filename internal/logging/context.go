package logging

import (
	"context"
	"log/slog"

	"mediaforge/internal/services"
)

const (
	FieldComponent = "component"
	// FieldCorrelationID carries the request identifier of a single CLI invocation or bot command.
	FieldCorrelationID = "correlation_id"
	FieldOperation     = "operation"
	FieldMessageID     = "message_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
	FieldDecisionType  = "decision_type"
	// FieldAlert flags warnings that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts the request attributes stored on ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if mid, ok := services.MessageIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMessageID, mid))
	}
	return fields
}

// WithContext returns logger augmented with the request attributes on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
