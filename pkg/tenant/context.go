package tenant

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithContext stores tc in ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the resolved tenant, if the middleware ran.
func FromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}

// IDFromContext returns the tenant id, or DefaultID when none was resolved.
func IDFromContext(ctx context.Context) string {
	if tc, ok := FromContext(ctx); ok && tc.ID != "" {
		return tc.ID
	}
	return DefaultID
}

// LoggerExtractor returns a logger.ContextExtractor compatible function that
// adds tenant_id to records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if tc, ok := FromContext(ctx); ok {
			return slog.String("tenant_id", tc.ID), true
		}
		return slog.Attr{}, false
	}
}
