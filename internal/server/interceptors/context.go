package interceptors

import (
	"context"

	userdomain "dispenser-identity/internal/user/domain"
)

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	sessionIDKey = contextKey{"session_id"}
	userKey      = contextKey{"user"}
)

// WithIdentity returns a context carrying the authenticated user and session.
// Handlers read them via GetUserID, GetSessionID and GetUser.
func WithIdentity(ctx context.Context, userID, sessionID int64, user *userdomain.User) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	if user != nil {
		ctx = context.WithValue(ctx, userKey, user)
	}
	return ctx
}

// GetUserID returns the user id from context and true if set; otherwise 0, false.
func GetUserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey).(int64)
	return v, ok && v > 0
}

// GetSessionID returns the session id from context and true if set; otherwise 0, false.
func GetSessionID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(sessionIDKey).(int64)
	return v, ok && v > 0
}

// GetUser returns the resolved user, or nil if the request is unauthenticated.
func GetUser(ctx context.Context) *userdomain.User {
	u, _ := ctx.Value(userKey).(*userdomain.User)
	return u
}
