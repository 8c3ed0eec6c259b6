package transport

import "context"

type contextKey string

// ContextSkipAuthKey marks a request that must be sent as-is, without bearer token or refresh
const ContextSkipAuthKey contextKey = "skipAuth"

// WithoutAuth returns context for unauthenticated calls such as login or registration
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextSkipAuthKey, true)
}

func skipAuth(ctx context.Context) bool {
	if value := ctx.Value(ContextSkipAuthKey); value != nil {
		skip, _ := value.(bool)
		return skip
	}
	return false
}
