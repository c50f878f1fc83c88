package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	operationKey contextKey = "operation"
	messageIDKey contextKey = "message_id"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

// WithOperation annotates context with the transcode or resolver operation name.
func WithOperation(ctx context.Context, op string) context.Context {
	return withString(ctx, operationKey, op)
}

func OperationFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, operationKey)
}

// WithMessageID annotates context with the chat message being inspected.
func WithMessageID(ctx context.Context, id string) context.Context {
	return withString(ctx, messageIDKey, id)
}

func MessageIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, messageIDKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
