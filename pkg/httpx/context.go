package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
)

// UserIDFromContext returns the authenticated user's id, if a session
// middleware put one there.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}

func contextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}
