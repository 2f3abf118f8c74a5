package auth

import "context"

type contextKey struct{}

var userIDKey contextKey

// ContextWithUserID is used by the auth middleware to stash the logged-in
// user so that handlers down the chain can scope queries to it.
func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the logged-in user, or false when the request
// was not authenticated.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}
