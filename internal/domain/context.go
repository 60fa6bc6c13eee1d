package domain

import "context"

type ctxKey string

const requestCtxKey ctxKey = "request_id"

// ContextWithRequestID returns a context carrying the advisory request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestCtxKey, requestID)
}

// RequestIDFromContext extracts the request ID, or "" when unset.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestCtxKey).(string); ok {
		return v
	}
	return ""
}
