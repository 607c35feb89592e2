package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestLoggerKey struct{}

// ContextWithLogger attaches the request-scoped logger (request_id and
// similar fields already bound) to ctx.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, l)
}

// FromContextOr returns the request logger carried by ctx, or fallback when
// there is none. A nil fallback yields a no-op logger.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(requestLoggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

// FromContext is FromContextOr with a no-op fallback.
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, nil)
}
