package logging

import (
	"context"

	"go.uber.org/zap"
)

// Context key types
type runCtxKey struct{}
type emailCtxKey struct{}
type loggerCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if emailID := EmailIDFromContext(ctx); emailID != "" {
		fields = append(fields, zap.String("email.id", emailID))
	}
	return fields
}

// WithRunID adds the run identifier to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext extracts the run identifier from context.
func RunIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithEmailID adds the email identifier to context.
func WithEmailID(ctx context.Context, emailID string) context.Context {
	return context.WithValue(ctx, emailCtxKey{}, emailID)
}

// EmailIDFromContext extracts the email identifier from context.
func EmailIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(emailCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context, defaulting to a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
