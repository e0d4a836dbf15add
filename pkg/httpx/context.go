package httpx

import "context"

type ctxKey string

const ctxKeySessionID ctxKey = "session_id"

// WithSessionID stores the resolved browser session ID on the context.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sid)
}

// SessionIDFromContext returns the session ID set by WithSessionID, or "".
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}
