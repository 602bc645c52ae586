package analyses

import "context"

type requestIDKey struct{}

// WithRequestID attaches a request ID to the context so background dispatch
// logs can be correlated with the originating HTTP request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// detachWithRequestID returns base carrying ctx's request ID, so work that
// outlives the request keeps its correlation ID without its cancellation.
func detachWithRequestID(base, ctx context.Context) context.Context {
	if base == nil {
		base = context.Background()
	}
	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		return base
	}
	return WithRequestID(base, requestID)
}
